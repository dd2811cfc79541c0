package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridiron-analytics/internal/cache"
	"github.com/yourusername/gridiron-analytics/internal/calibration"
	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/datasource"
	"github.com/yourusername/gridiron-analytics/internal/logger"
	"github.com/yourusername/gridiron-analytics/internal/models"
	"github.com/yourusername/gridiron-analytics/internal/prediction"
)

type stubRatingSource struct {
	set *datasource.RatingSet
}

func (s *stubRatingSource) GetRatings(ctx context.Context, season int, cfg datasource.RatingConfig) (*datasource.RatingSet, error) {
	return s.set, nil
}

type stubResultSource struct {
	weeks map[int][]models.ResolvedPrediction
}

func (s *stubResultSource) GetResolvedPredictions(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error) {
	return s.weeks[week], nil
}

func newTestService(t *testing.T, results map[int][]models.ResolvedPrediction) *AnalyticsService {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	cacheCfg := &config.CacheConfig{
		MaxEntries:              100,
		SweepIntervalSeconds:    60,
		AdaptiveHitThreshold:    5,
		AdaptiveExtensionFactor: 1.5,
		MaxAdaptiveTTLSeconds:   3600,
		MaxMemoryBytes:          1 << 20,
		Policies: map[string]config.CachePolicyConfig{
			"ratings":     {DefaultTTLSeconds: 3600, Weight: 3.0},
			"predictions": {DefaultTTLSeconds: 900, Weight: 2.0},
			"calibration": {DefaultTTLSeconds: 1800, Weight: 2.5},
			"scratch":     {DefaultTTLSeconds: 300, Weight: 1.0},
		},
	}
	c := cache.New(cacheCfg, log)

	ratings := &stubRatingSource{set: &datasource.RatingSet{
		Season: 2025,
		Teams: map[string]models.TeamRating{
			"KC":  {TeamID: "KC", Rating: 1700, AsOfSeason: 2025},
			"BUF": {TeamID: "BUF", Rating: 1640, AsOfSeason: 2025},
			"NYJ": {TeamID: "NYJ", Rating: 1450, AsOfSeason: 2025},
		},
	}}

	retry := datasource.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  25 * time.Millisecond,
	}
	fetcher := datasource.NewFetcher(ratings, &stubResultSource{weeks: results}, c, retry, log)

	engine := prediction.NewEngine(prediction.DefaultParams(), log)
	cached := prediction.NewCachedEngine(engine, c, log)

	params := calibration.DefaultParams()
	params.WeeksPerSeason = 2
	analyzer := calibration.NewAnalyzer(fetcher, calibration.NewReportStore(), params, log)

	return NewAnalyticsService(fetcher, cached, analyzer, logger.NewAuditLogger(log), log)
}

func correctAt(confidence float64) models.ResolvedPrediction {
	return models.ResolvedPrediction{
		Prediction: &models.Prediction{
			HomeTeamID:      "KC",
			AwayTeamID:      "BUF",
			PredictedWinner: "KC",
			Confidence:      confidence,
		},
		ActualWinner: "KC",
		Week:         1,
	}
}

func TestPredictGameAppliesCalibration(t *testing.T) {
	svc := newTestService(t, map[int][]models.ResolvedPrediction{
		1: {correctAt(30), correctAt(30)},
	})

	_, err := svc.RefreshCalibration(context.Background(), 2025)
	require.NoError(t, err)

	// KC 1700 + 25 vs BUF 1640 is an 85-point gap, confidence around 39,
	// landing in the Low bin where both historical predictions won.
	pred, err := svc.PredictGame(context.Background(), 2025, 3,
		models.Matchup{HomeTeamID: "KC", AwayTeamID: "BUF"}, datasource.RatingConfig{})
	require.NoError(t, err)

	assert.Equal(t, "KC", pred.PredictedWinner)
	assert.Greater(t, pred.Adjustment, 0.0)
	assert.InDelta(t, pred.Confidence+pred.Adjustment, pred.CalibratedConfidence, 1e-9)
}

func TestPredictGameWithoutReportPassesThrough(t *testing.T) {
	svc := newTestService(t, map[int][]models.ResolvedPrediction{})

	pred, err := svc.PredictGame(context.Background(), 2025, 3,
		models.Matchup{HomeTeamID: "KC", AwayTeamID: "BUF"}, datasource.RatingConfig{})
	require.NoError(t, err)

	assert.Zero(t, pred.Adjustment)
	assert.InDelta(t, pred.Confidence, pred.CalibratedConfidence, 1e-9)
}

func TestPredictWeekSkipsUnknownTeams(t *testing.T) {
	svc := newTestService(t, map[int][]models.ResolvedPrediction{})

	predictions, err := svc.PredictWeek(context.Background(), 2025, 3, []models.Matchup{
		{HomeTeamID: "KC", AwayTeamID: "BUF"},
		{HomeTeamID: "NYJ", AwayTeamID: "DAL"},
	}, datasource.RatingConfig{})
	require.NoError(t, err)

	require.Len(t, predictions, 1)
	assert.Equal(t, "KC", predictions[0].HomeTeamID)
}

func TestCalibrationSummaryRunsOnce(t *testing.T) {
	svc := newTestService(t, map[int][]models.ResolvedPrediction{
		1: {correctAt(85)},
	})

	first, err := svc.CalibrationSummary(context.Background(), 2025)
	require.NoError(t, err)

	second, err := svc.CalibrationSummary(context.Background(), 2025)
	require.NoError(t, err)
	assert.Same(t, first, second, "stored report should be reused")
}

func TestInvalidateCalibration(t *testing.T) {
	svc := newTestService(t, map[int][]models.ResolvedPrediction{
		1: {correctAt(85)},
	})

	err := svc.InvalidateCalibration(2025, "manual")
	assert.ErrorIs(t, err, models.ErrNoReport)

	_, err = svc.CalibrationSummary(context.Background(), 2025)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateCalibration(2025, "manual"))
	_, ok := svc.analyzer.Report(2025)
	assert.False(t, ok)
}

func TestHandleGameFinalInvalidates(t *testing.T) {
	results := map[int][]models.ResolvedPrediction{
		1: {correctAt(85)},
	}
	svc := newTestService(t, results)

	report, err := svc.CalibrationSummary(context.Background(), 2025)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalPredictions())

	first, err := svc.PredictGame(context.Background(), 2025, 1,
		models.Matchup{HomeTeamID: "KC", AwayTeamID: "BUF"}, datasource.RatingConfig{})
	require.NoError(t, err)

	// The newly final game resolves upstream before the event lands.
	results[1] = append(results[1], correctAt(70))

	require.NoError(t, svc.HandleGameFinal(datasource.GameFinalEvent{
		Season: 2025, Week: 1, HomeTeamID: "KC", AwayTeamID: "BUF",
		HomeScore: 27, AwayScore: 20,
	}))

	// The stored report is dropped.
	_, ok := svc.analyzer.Report(2025)
	assert.False(t, ok)

	// A fresh prediction object is computed after invalidation.
	again, err := svc.PredictGame(context.Background(), 2025, 1,
		models.Matchup{HomeTeamID: "KC", AwayTeamID: "BUF"}, datasource.RatingConfig{})
	require.NoError(t, err)
	assert.NotSame(t, first.Prediction, again.Prediction)

	// The rebuilt report re-reads the week from upstream rather than serving
	// the cached payload, so it includes the newly resolved game.
	rebuilt, err := svc.CalibrationSummary(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt.TotalPredictions())
}
