// Package calibration measures how well stated prediction confidence tracks
// observed outcomes and derives corrective adjustments.
package calibration

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/config"
	"github.com/yourusername/gridiron-analytics/internal/metrics"
	"github.com/yourusername/gridiron-analytics/internal/models"
)

// ResultProvider supplies resolved predictions one week at a time.
type ResultProvider interface {
	ResolvedWeek(ctx context.Context, season, week int) ([]models.ResolvedPrediction, error)
}

// Params holds the analyzer tunables. The damping factor and thresholds are
// configuration, not derived quantities.
type Params struct {
	WeeksPerSeason       int
	DampingFactor        float64
	OverconfidenceMargin float64
	SharpnessThreshold   float64
	ReliabilityThreshold float64
}

// DefaultParams returns the standard analyzer parameters.
func DefaultParams() Params {
	return Params{
		WeeksPerSeason:       18,
		DampingFactor:        0.5,
		OverconfidenceMargin: 10,
		SharpnessThreshold:   30,
		ReliabilityThreshold: 70,
	}
}

// ParamsFromConfig builds analyzer parameters from configuration.
func ParamsFromConfig(cfg *config.CalibrationConfig) Params {
	return Params{
		WeeksPerSeason:       cfg.WeeksPerSeason,
		DampingFactor:        cfg.DampingFactor,
		OverconfidenceMargin: cfg.OverconfidenceMargin,
		SharpnessThreshold:   cfg.SharpnessThreshold,
		ReliabilityThreshold: cfg.ReliabilityThreshold,
	}
}

// Analyzer builds per-season calibration reports and serves confidence
// adjustments from the most recent report.
type Analyzer struct {
	results ResultProvider
	store   *ReportStore
	params  Params
	logger  *logrus.Logger
}

// NewAnalyzer creates an analyzer over the given result provider.
func NewAnalyzer(results ResultProvider, store *ReportStore, params Params, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		results: results,
		store:   store,
		params:  params,
		logger:  logger,
	}
}

// binAccumulator collects raw counts for one confidence bin during a run.
type binAccumulator struct {
	count   int
	correct int
}

// Calibrate folds every resolved week of a season into a fresh report. A
// season with no resolved predictions yields a zeroed report, not an error.
func (a *Analyzer) Calibrate(ctx context.Context, season int) (*models.CalibrationReport, error) {
	if season < 1 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidSeason, season)
	}
	start := time.Now()

	var acc [models.BinCount]binAccumulator
	for week := 1; week <= a.params.WeeksPerSeason; week++ {
		resolved, err := a.results.ResolvedWeek(ctx, season, week)
		if err != nil {
			metrics.CalibrationRunsTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("calibration run for season %d failed at week %d: %w", season, week, err)
		}
		for i := range resolved {
			rp := &resolved[i]
			if rp.Prediction == nil {
				continue
			}
			bin := models.BinIndex(rp.Prediction.Confidence)
			acc[bin].count++
			if rp.Correct() {
				acc[bin].correct++
			}
		}
	}

	report := a.buildReport(season, acc)
	a.store.Set(report)

	duration := time.Since(start)
	metrics.RecordCalibrationRun(strconv.Itoa(season), duration.Seconds(), report.OverallCalibration, report.Sharpness, report.Reliability)

	a.logger.WithFields(logrus.Fields{
		"season":              season,
		"predictions":         report.TotalPredictions(),
		"overall_calibration": report.OverallCalibration,
		"reliability":         report.Reliability,
		"sharpness":           report.Sharpness,
		"recommendations":     len(report.Recommendations),
		"duration_ms":         duration.Milliseconds(),
	}).Info("Calibration run complete")

	return report, nil
}

// buildReport turns per-bin raw counts into the season aggregate.
func (a *Analyzer) buildReport(season int, acc [models.BinCount]binAccumulator) *models.CalibrationReport {
	report := &models.CalibrationReport{
		ID:          uuid.New(),
		Season:      season,
		GeneratedAt: time.Now(),
	}

	var (
		total          int
		weightedError  float64
		weightedReliab float64
		highConfidence int
	)

	for i := range report.Bins {
		bin := &report.Bins[i]
		bin.Range = models.BinRanges[i]
		bin.ExpectedAccuracy = bin.Range.Midpoint()

		bin.PredictedCount = acc[i].count
		bin.CorrectCount = acc[i].correct
		if bin.PredictedCount == 0 {
			continue
		}

		p := float64(bin.CorrectCount) / float64(bin.PredictedCount)
		bin.ActualAccuracy = 100 * p
		bin.CalibrationError = math.Abs(bin.ActualAccuracy - bin.ExpectedAccuracy)
		// Variance of the correctness indicator is p(1-p).
		bin.Reliability = 100 - 100*p*(1-p)

		total += bin.PredictedCount
		weightedError += bin.CalibrationError * float64(bin.PredictedCount)
		weightedReliab += bin.Reliability * float64(bin.PredictedCount)
		if bin.Range.Min >= 60 {
			highConfidence += bin.PredictedCount
		}
	}

	if total == 0 {
		return report
	}

	report.OverallCalibration = 100 - weightedError/float64(total)
	report.Reliability = weightedReliab / float64(total)
	report.Sharpness = 100 * float64(highConfidence) / float64(total)
	report.Recommendations = a.recommendations(report)

	return report
}

// recommendations applies every rule independently; several may fire at
// once. Empty bins never trigger the per-bin rules.
func (a *Analyzer) recommendations(report *models.CalibrationReport) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0)

	for i := range report.Bins {
		bin := &report.Bins[i]
		if bin.PredictedCount == 0 {
			continue
		}
		switch {
		case bin.ActualAccuracy < bin.ExpectedAccuracy-a.params.OverconfidenceMargin:
			recommendations = append(recommendations, models.Recommendation{
				Type:     models.RecommendationOverconfidence,
				Severity: models.SeverityHigh,
				Bin:      bin.Range.Label,
				Message: fmt.Sprintf("Predictions in the %s bin win %.1f%% of the time against a stated %.1f%%; confidence is overstated",
					bin.Range.Label, bin.ActualAccuracy, bin.ExpectedAccuracy),
			})
		case bin.ActualAccuracy > bin.ExpectedAccuracy+a.params.OverconfidenceMargin:
			recommendations = append(recommendations, models.Recommendation{
				Type:     models.RecommendationUnderconfidence,
				Severity: models.SeverityMedium,
				Bin:      bin.Range.Label,
				Message: fmt.Sprintf("Predictions in the %s bin win %.1f%% of the time against a stated %.1f%%; confidence is understated",
					bin.Range.Label, bin.ActualAccuracy, bin.ExpectedAccuracy),
			})
		}
	}

	if report.Sharpness < a.params.SharpnessThreshold {
		recommendations = append(recommendations, models.Recommendation{
			Type:     models.RecommendationLowSharpness,
			Severity: models.SeverityMedium,
			Message: fmt.Sprintf("Only %.1f%% of predictions carry high confidence; the engine rarely commits",
				report.Sharpness),
		})
	}
	if report.Reliability < a.params.ReliabilityThreshold {
		recommendations = append(recommendations, models.Recommendation{
			Type:     models.RecommendationLowReliability,
			Severity: models.SeverityHigh,
			Message: fmt.Sprintf("Season reliability is %.1f; outcomes within confidence bins are inconsistent",
				report.Reliability),
		})
	}

	return recommendations
}

// Report returns the stored report for a season, if one exists.
func (a *Analyzer) Report(season int) (*models.CalibrationReport, bool) {
	return a.store.Get(season)
}

// Invalidate drops a season's stored report so the next run rebuilds it.
func (a *Analyzer) Invalidate(season int) {
	a.store.Invalidate(season)
}

// AdjustedConfidence applies the damped calibration correction to a raw
// confidence value. Without a report for the season, or when the raw value
// lands in an empty bin, it returns the raw value with zero adjustment. The
// second return value is the damped adjustment that was applied.
func (a *Analyzer) AdjustedConfidence(season int, raw float64) (float64, float64) {
	report, ok := a.store.Get(season)
	if !ok {
		return raw, 0
	}
	return AdjustConfidence(report, raw, a.params.DampingFactor)
}

// AdjustConfidence applies a report's bin correction to a raw confidence
// value under the given damping factor.
func AdjustConfidence(report *models.CalibrationReport, raw float64, damping float64) (float64, float64) {
	bin := &report.Bins[models.BinIndex(raw)]
	if bin.PredictedCount == 0 {
		return raw, 0
	}
	adjustment := damping * (bin.ActualAccuracy - bin.ExpectedAccuracy)
	calibrated := raw + adjustment
	if calibrated < 0 {
		calibrated = 0
	} else if calibrated > 100 {
		calibrated = 100
	}
	return calibrated, adjustment
}
