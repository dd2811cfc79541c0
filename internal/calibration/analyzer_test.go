package calibration

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridiron-analytics/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubResults serves canned resolved predictions keyed by week.
type stubResults struct {
	weeks map[int][]models.ResolvedPrediction
	err   error
}

func (s *stubResults) ResolvedWeek(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.weeks[week], nil
}

func resolved(confidence float64, correct bool) models.ResolvedPrediction {
	winner := "KC"
	actual := winner
	if !correct {
		actual = "BUF"
	}
	return models.ResolvedPrediction{
		Prediction: &models.Prediction{
			HomeTeamID:      "KC",
			AwayTeamID:      "BUF",
			PredictedWinner: winner,
			Confidence:      confidence,
		},
		ActualWinner: actual,
		Week:         1,
	}
}

func newTestAnalyzer(results ResultProvider) *Analyzer {
	params := DefaultParams()
	params.WeeksPerSeason = 3
	return NewAnalyzer(results, NewReportStore(), params, testLogger())
}

func TestCalibrateEmptySeason(t *testing.T) {
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{}})

	report, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalPredictions())
	assert.Zero(t, report.OverallCalibration)
	assert.Zero(t, report.Reliability)
	assert.Zero(t, report.Sharpness)
	assert.Empty(t, report.Recommendations)
}

// TestCalibrateHighConfidenceBin pins the canonical bin numbers: two correct
// predictions at confidence 80 land in the top bin with actual accuracy 100
// against an expected 90.
func TestCalibrateHighConfidenceBin(t *testing.T) {
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{
		1: {resolved(80, true)},
		2: {resolved(80, true)},
	}})

	report, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	bin := report.Bins[4]
	assert.Equal(t, 2, bin.PredictedCount)
	assert.InDelta(t, 100.0, bin.ActualAccuracy, 1e-9)
	assert.InDelta(t, 90.0, bin.ExpectedAccuracy, 1e-9)
	assert.InDelta(t, 10.0, bin.CalibrationError, 1e-9)

	// Every prediction won, so the correctness indicator has zero variance.
	assert.InDelta(t, 100.0, bin.Reliability, 1e-9)
	assert.InDelta(t, 90.0, report.OverallCalibration, 1e-9)
	assert.InDelta(t, 100.0, report.Sharpness, 1e-9)
}

func TestCalibrateSkipsEmptyBins(t *testing.T) {
	// All predictions in one bin; the other four must not drag the
	// weighted aggregates toward zero.
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{
		1: {resolved(50, true), resolved(50, false)},
	}})

	report, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalPredictions())
	// Medium bin: actual 50 vs expected 50, error 0.
	assert.InDelta(t, 100.0, report.OverallCalibration, 1e-9)
	// Mixed outcomes give maximal indicator variance, p(1-p) = 0.25.
	assert.InDelta(t, 75.0, report.Reliability, 1e-9)
	assert.Zero(t, report.Sharpness)
}

func TestCalibrateOverconfidenceRecommendation(t *testing.T) {
	// Ten predictions at confidence 80, three correct: actual 30 against
	// expected 90 fires the overconfidence rule.
	week := make([]models.ResolvedPrediction, 0, 10)
	for i := 0; i < 10; i++ {
		week = append(week, resolved(80, i < 3))
	}
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{1: week}})

	report, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	types := make(map[models.RecommendationType]string)
	for _, r := range report.Recommendations {
		types[r.Type] = r.Severity
	}
	assert.Equal(t, models.SeverityHigh, types[models.RecommendationOverconfidence])
	assert.NotContains(t, types, models.RecommendationUnderconfidence)
}

func TestCalibrateRulesFireIndependently(t *testing.T) {
	// Low-confidence predictions that all win: the Very Low bin is badly
	// understated and sharpness is zero, so both rules fire together.
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{
		1: {resolved(10, true), resolved(10, true), resolved(10, true)},
	}})

	report, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	types := make([]models.RecommendationType, 0, len(report.Recommendations))
	for _, r := range report.Recommendations {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, models.RecommendationUnderconfidence)
	assert.Contains(t, types, models.RecommendationLowSharpness)
}

func TestCalibrateRejectsInvalidSeason(t *testing.T) {
	analyzer := newTestAnalyzer(&stubResults{})

	_, err := analyzer.Calibrate(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidSeason)
}

func TestCalibratePropagatesFetchFailure(t *testing.T) {
	analyzer := newTestAnalyzer(&stubResults{err: errors.New("upstream down")})

	_, err := analyzer.Calibrate(context.Background(), 2025)
	require.Error(t, err)

	_, ok := analyzer.Report(2025)
	assert.False(t, ok, "a failed run must not store a report")
}

func TestAdjustedConfidenceWithoutReport(t *testing.T) {
	analyzer := newTestAnalyzer(&stubResults{})

	calibrated, adjustment := analyzer.AdjustedConfidence(2025, 73)
	assert.InDelta(t, 73.0, calibrated, 1e-9)
	assert.Zero(t, adjustment)
}

func TestAdjustedConfidenceDampedCorrection(t *testing.T) {
	// Top bin runs 10 points hot (actual 100 vs expected 90); half of that
	// is applied.
	analyzer := newTestAnalyzer(&stubResults{weeks: map[int][]models.ResolvedPrediction{
		1: {resolved(85, true), resolved(85, true)},
	}})
	_, err := analyzer.Calibrate(context.Background(), 2025)
	require.NoError(t, err)

	calibrated, adjustment := analyzer.AdjustedConfidence(2025, 85)
	assert.InDelta(t, 5.0, adjustment, 1e-9)
	assert.InDelta(t, 90.0, calibrated, 1e-9)

	// Raw values in an empty bin pass through untouched.
	passthrough, adj := analyzer.AdjustedConfidence(2025, 30)
	assert.InDelta(t, 30.0, passthrough, 1e-9)
	assert.Zero(t, adj)
}

func TestAdjustConfidenceClamps(t *testing.T) {
	report := &models.CalibrationReport{Season: 2025}
	for i := range report.Bins {
		report.Bins[i].Range = models.BinRanges[i]
		report.Bins[i].ExpectedAccuracy = models.BinRanges[i].Midpoint()
	}
	top := &report.Bins[4]
	top.PredictedCount = 4
	top.CorrectCount = 4
	top.ActualAccuracy = 100

	calibrated, _ := AdjustConfidence(report, 99, 0.5)
	assert.InDelta(t, 100.0, calibrated, 1e-9)
}

func TestReportStoreLifecycle(t *testing.T) {
	store := NewReportStore()
	report := &models.CalibrationReport{Season: 2025}

	_, ok := store.Get(2025)
	assert.False(t, ok)

	store.Set(report)
	got, ok := store.Get(2025)
	require.True(t, ok)
	assert.Same(t, report, got)

	store.Invalidate(2025)
	_, ok = store.Get(2025)
	assert.False(t, ok)

	store.Set(report)
	store.Set(&models.CalibrationReport{Season: 2024})
	assert.ElementsMatch(t, []int{2024, 2025}, store.Seasons())

	store.InvalidateAll()
	assert.Empty(t, store.Seasons())
}
