package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// PredictedScore is the heuristic final-score estimate for a game.
type PredictedScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Prediction represents the engine's output for a single game. Probabilities
// and confidence are whole percentages for display; the unrounded expected
// scores are retained for downstream calibration comparisons. A Prediction is
// never mutated after creation and may be shared by reference once cached.
type Prediction struct {
	HomeTeamID         string         `json:"home_team_id" validate:"required"`
	AwayTeamID         string         `json:"away_team_id" validate:"required"`
	HomeWinProbability float64        `json:"home_win_probability" validate:"gte=0,lte=100"`
	AwayWinProbability float64        `json:"away_win_probability" validate:"gte=0,lte=100"`
	PredictedWinner    string         `json:"predicted_winner" validate:"required"`
	Confidence         float64        `json:"confidence" validate:"gte=0,lte=100"`
	PredictedScore     PredictedScore `json:"predicted_score"`
	ExpectedHomeScore  float64        `json:"expected_home_score"`
	ExpectedAwayScore  float64        `json:"expected_away_score"`
	RatingDifference   float64        `json:"rating_difference"`
	HomeFieldAdvantage float64        `json:"home_field_advantage"`
}

// HomeMoneyline converts the home win probability into American moneyline
// odds, rounded to a whole number.
func (p *Prediction) HomeMoneyline() decimal.Decimal {
	return moneyline(p.HomeWinProbability)
}

// AwayMoneyline converts the away win probability into American moneyline
// odds, rounded to a whole number.
func (p *Prediction) AwayMoneyline() decimal.Decimal {
	return moneyline(p.AwayWinProbability)
}

// moneyline maps a percentage probability to American odds. Favorites
// (p > 50) produce negative lines, underdogs positive ones. Probabilities at
// the extremes are clamped to keep the line finite.
func moneyline(percent float64) decimal.Decimal {
	p := math.Min(math.Max(percent/100, 0.01), 0.99)
	var line float64
	if p > 0.5 {
		line = -100 * p / (1 - p)
	} else {
		line = 100 * (1 - p) / p
	}
	return decimal.NewFromFloat(line).Round(0)
}
