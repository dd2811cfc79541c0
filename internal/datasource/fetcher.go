package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/gridiron-analytics/internal/cache"
	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/metrics"
	"github.com/yourusername/gridiron-analytics/internal/models"
)

// RetryConfig bounds the exponential-backoff retry loop around source calls.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig returns the standard retry bounds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  60 * time.Second,
	}
}

// RetryConfigFromConfig builds retry bounds from the sources configuration.
func RetryConfigFromConfig(cfg *config.SourcesConfig) RetryConfig {
	return RetryConfig{
		InitialInterval: time.Duration(cfg.RetryInitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.RetryMaxIntervalSeconds) * time.Second,
		MaxElapsedTime:  time.Duration(cfg.RetryMaxElapsedSeconds) * time.Second,
	}
}

// Fetcher is the caching front for the external sources. Concurrent callers
// asking for the same key share one in-flight request; the in-flight slot is
// cleared on completion, success or failure, so a failed fetch stays
// retryable. There is no cancellation of in-flight fetches on caller
// abandonment; completed results are cached for later callers.
type Fetcher struct {
	ratings RatingSource
	results GameResultSource
	cache   *cache.AdaptiveCache
	group   singleflight.Group
	retry   RetryConfig
	logger  *logrus.Logger

	ratingsFallback *RatingSet
	resultsFallback []models.ResolvedPrediction
}

// NewFetcher creates a new fetcher over the given sources and cache.
func NewFetcher(ratings RatingSource, results GameResultSource, c *cache.AdaptiveCache, retry RetryConfig, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		ratings: ratings,
		results: results,
		cache:   c,
		retry:   retry,
		logger:  logger,
	}
}

// WithRatingsFallback configures a payload returned when a ratings fetch
// exhausts its retries. Fallback payloads are not cached.
func (f *Fetcher) WithRatingsFallback(set *RatingSet) *Fetcher {
	f.ratingsFallback = set
	return f
}

// WithResultsFallback configures a payload returned when a results fetch
// exhausts its retries. Fallback payloads are not cached.
func (f *Fetcher) WithResultsFallback(predictions []models.ResolvedPrediction) *Fetcher {
	f.resultsFallback = predictions
	return f
}

// Ratings returns a season's rating set, from cache when possible.
func (f *Fetcher) Ratings(ctx context.Context, season int, cfg RatingConfig) (*RatingSet, error) {
	key := cache.RatingsKey(season, cfg.Key())

	if v, ok := f.cache.Get(key); ok {
		if set, ok := v.(*RatingSet); ok {
			return set, nil
		}
	}

	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		set, err := fetchWithRetry(ctx, f, "ratings", func(ctx context.Context) (*RatingSet, error) {
			return f.ratings.GetRatings(ctx, season, cfg)
		})
		if err != nil {
			if f.ratingsFallback != nil {
				f.logger.WithError(err).WithField("season", season).
					Warn("Ratings fetch exhausted retries, serving fallback payload")
				metrics.SourceFetchesTotal.WithLabelValues("ratings", "fallback").Inc()
				return f.ratingsFallback, nil
			}
			return nil, err
		}
		f.cache.Set(key, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RatingSet), nil
}

// ResolvedWeek returns a week's resolved predictions, from cache when possible.
func (f *Fetcher) ResolvedWeek(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error) {
	key := cache.ResolvedWeekKey(season, week)

	if v, ok := f.cache.Get(key); ok {
		if predictions, ok := v.([]models.ResolvedPrediction); ok {
			return predictions, nil
		}
	}

	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		predictions, err := fetchWithRetry(ctx, f, "results", func(ctx context.Context) ([]models.ResolvedPrediction, error) {
			return f.results.GetResolvedPredictions(ctx, season, week)
		})
		if err != nil {
			if f.resultsFallback != nil {
				f.logger.WithError(err).WithFields(logrus.Fields{
					"season": season,
					"week":   week,
				}).Warn("Results fetch exhausted retries, serving fallback payload")
				metrics.SourceFetchesTotal.WithLabelValues("results", "fallback").Inc()
				return f.resultsFallback, nil
			}
			return nil, err
		}
		f.cache.Set(key, predictions)
		return predictions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ResolvedPrediction), nil
}

// InvalidateResolvedWeek drops the cached resolved payload for a week so the
// next calibration run re-fetches it. Called when a game in that week goes
// final and the cached payload no longer includes every resolved game.
func (f *Fetcher) InvalidateResolvedWeek(season, week int) {
	f.cache.Delete(cache.ResolvedWeekKey(season, week))
}

// fetchWithRetry runs one source call under bounded exponential backoff.
// Every failed attempt counts as a retry; exhausting the bounds surfaces
// ErrFetchFailed wrapping the last cause.
func fetchWithRetry[T any](ctx context.Context, f *Fetcher, source string, call func(context.Context) (T, error)) (T, error) {
	var result T
	start := time.Now()
	attempts := 0

	operation := func() error {
		var err error
		result, err = call(ctx)
		if err != nil {
			attempts++
			if attempts > 1 {
				metrics.SourceFetchRetriesTotal.Inc()
			}
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retry.InitialInterval
	bo.MaxInterval = f.retry.MaxInterval
	bo.MaxElapsedTime = f.retry.MaxElapsedTime

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	metrics.SourceFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SourceFetchesTotal.WithLabelValues(source, "failure").Inc()
		var zero T
		return zero, fmt.Errorf("%w: %v", models.ErrFetchFailed, err)
	}

	metrics.SourceFetchesTotal.WithLabelValues(source, "success").Inc()
	return result, nil
}
