// Package prediction provides the cached prediction engine wrapper.
package prediction

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/cache"
	"github.com/yourusername/gridiron-analytics/internal/metrics"
	"github.com/yourusername/gridiron-analytics/internal/models"
)

// CachedEngine wraps Engine with the adaptive cache so repeated requests for
// the same game are served without recomputation. Cached predictions are
// shared by reference and must not be mutated by callers.
type CachedEngine struct {
	engine *Engine
	cache  *cache.AdaptiveCache
	logger *logrus.Logger
}

// NewCachedEngine creates a new cached prediction engine.
func NewCachedEngine(engine *Engine, c *cache.AdaptiveCache, logger *logrus.Logger) *CachedEngine {
	return &CachedEngine{
		engine: engine,
		cache:  c,
		logger: logger,
	}
}

// Predict returns the prediction for one game, served from cache when
// possible. The boolean reports whether the result was cached.
func (c *CachedEngine) Predict(ctx context.Context, season, week int, matchup models.Matchup, ratings RatingLookup) (*models.Prediction, bool, error) {
	key := cache.PredictionKey(season, week, matchup.HomeTeamID, matchup.AwayTeamID)

	if v, ok := c.cache.Get(key); ok {
		if pred, ok := v.(*models.Prediction); ok {
			c.logger.WithField("cache_key", key).Debug("Cache hit for prediction")
			metrics.RecordPredictionServed("cache")
			return pred, true, nil
		}
	}

	c.logger.WithField("cache_key", key).Debug("Cache miss, computing prediction")

	home, _ := ratings.Lookup(matchup.HomeTeamID)
	away, _ := ratings.Lookup(matchup.AwayTeamID)

	pred, err := c.engine.Predict(matchup, home, away)
	if err != nil {
		return nil, false, err
	}

	c.cache.Set(key, pred)
	metrics.RecordPredictionServed("engine")
	return pred, false, nil
}

// PredictWeek predicts a whole week's slate with partial caching: cached
// games are served as-is and only the remainder is computed. Games with a
// missing rating are skipped, not fatal.
func (c *CachedEngine) PredictWeek(ctx context.Context, season, week int, matchups []models.Matchup, ratings RatingLookup) []*models.Prediction {
	start := time.Now()
	predictions := make([]*models.Prediction, 0, len(matchups))
	uncached := 0

	for _, m := range matchups {
		pred, cached, err := c.Predict(ctx, season, week, m, ratings)
		if err != nil {
			metrics.PredictionsSkippedTotal.Inc()
			c.logger.WithFields(logrus.Fields{
				"season":       season,
				"week":         week,
				"home_team_id": m.HomeTeamID,
				"away_team_id": m.AwayTeamID,
			}).WithError(err).Warn("Skipping game with missing rating")
			continue
		}
		if !cached {
			uncached++
		}
		predictions = append(predictions, pred)
	}

	metrics.PredictionBatchDuration.Observe(time.Since(start).Seconds())
	c.logger.WithFields(logrus.Fields{
		"season":   season,
		"week":     week,
		"total":    len(matchups),
		"cached":   len(predictions) - uncached,
		"uncached": uncached,
	}).Debug("Week prediction with partial cache")

	return predictions
}

// InvalidateWeek drops every cached prediction for a season/week pair, used
// when a live result makes the week's cached entries stale.
func (c *CachedEngine) InvalidateWeek(season, week int) int {
	removed := c.cache.InvalidatePrefix(cache.PredictionWeekPrefix(season, week))
	if removed > 0 {
		c.logger.WithFields(logrus.Fields{
			"season":  season,
			"week":    week,
			"removed": removed,
		}).Debug("Invalidated cached predictions for week")
	}
	return removed
}
