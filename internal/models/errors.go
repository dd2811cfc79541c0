package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrMissingRating = errors.New("team rating not available")
	ErrFetchFailed   = errors.New("external fetch failed after retries")
	ErrNoReport      = errors.New("no calibration report for season")
	ErrInvalidSeason = errors.New("invalid season")
)

// MissingRatingError reports which team had no rating. The affected game is
// skipped from batch output rather than aborting the whole batch.
type MissingRatingError struct {
	TeamID string
}

func (e *MissingRatingError) Error() string {
	return fmt.Sprintf("team rating not available: %s", e.TeamID)
}

// Unwrap allows errors.Is(err, ErrMissingRating) checks.
func (e *MissingRatingError) Unwrap() error {
	return ErrMissingRating
}
