package cache

import (
	"strconv"
	"strings"
)

const keySeparator = ":"

// Canonical key prefixes. All call sites must build keys through this file so
// the same parameters always hit the same entry.
const (
	PrefixRatings     = "elo_ratings"
	PrefixPredictions = "predictions"
	PrefixCalibration = "calibration"
	PrefixScratch     = "scratch"
)

// Key joins a logical prefix with serialized parameters.
func Key(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + keySeparator + strings.Join(parts, keySeparator)
}

// RatingsKey builds the cache key for a season's rating set under a named
// rating configuration.
func RatingsKey(season int, configKey string) string {
	return Key(PrefixRatings, strconv.Itoa(season), configKey)
}

// PredictionKey builds the cache key for a single game prediction.
func PredictionKey(season, week int, homeTeamID, awayTeamID string) string {
	return Key(PrefixPredictions, strconv.Itoa(season), strconv.Itoa(week), homeTeamID, awayTeamID)
}

// PredictionWeekPrefix returns the shared prefix of all prediction keys for a
// season/week pair, used for bulk invalidation.
func PredictionWeekPrefix(season, week int) string {
	return Key(PrefixPredictions, strconv.Itoa(season), strconv.Itoa(week)) + keySeparator
}

// ResolvedWeekKey builds the cache key for a week's resolved predictions.
func ResolvedWeekKey(season, week int) string {
	return Key(PrefixCalibration, "resolved", strconv.Itoa(season), strconv.Itoa(week))
}
