package models

// TeamRating represents a single-scalar strength estimate for a team.
// Ratings live on a roughly 1000-2000 scale; higher is stronger. A rating is
// immutable once fetched for a given season/config pair and is re-fetched,
// never mutated, when either changes.
type TeamRating struct {
	TeamID     string  `json:"team_id" validate:"required"`
	Rating     float64 `json:"rating" validate:"required"`
	AsOfSeason int     `json:"as_of_season" validate:"required,gt=0"`
}

// Matchup identifies a single scheduled game by its two teams.
type Matchup struct {
	HomeTeamID string `json:"home_team_id" validate:"required"`
	AwayTeamID string `json:"away_team_id" validate:"required"`
}
