// Package datasource provides the boundary to the external rating and
// game-result services.
package datasource

import (
	"context"

	"github.com/yourusername/gridiron-analytics/internal/models"
)

// RatingConfig selects a named rating configuration. Ratings are immutable
// for a given season/config pair and re-fetched when either changes.
type RatingConfig struct {
	Variant string `json:"variant"`
}

// Key returns the cache-key fragment for this configuration.
func (c RatingConfig) Key() string {
	if c.Variant == "" {
		return "standard"
	}
	return c.Variant
}

// RatingSet is a season's worth of team ratings under one configuration.
type RatingSet struct {
	Season int                          `json:"season"`
	Config RatingConfig                 `json:"config"`
	Teams  map[string]models.TeamRating `json:"teams"`
}

// Lookup resolves a team's rating. An absent team returns false, never an
// error; the prediction engine turns that into a missing-rating skip.
func (s *RatingSet) Lookup(teamID string) (*models.TeamRating, bool) {
	if s == nil {
		return nil, false
	}
	rating, ok := s.Teams[teamID]
	if !ok {
		return nil, false
	}
	return &rating, true
}

// RatingSource supplies team strength ratings.
type RatingSource interface {
	GetRatings(ctx context.Context, season int, cfg RatingConfig) (*RatingSet, error)
}

// GameResultSource supplies historical predictions already resolved against
// actual outcomes. Used only by the calibration analyzer.
type GameResultSource interface {
	GetResolvedPredictions(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error)
}
