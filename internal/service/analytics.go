// Package service orchestrates rating fetches, prediction, and calibration
// into the operations the API surface exposes.
package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridiron-analytics/internal/calibration"
	"github.com/yourusername/gridiron-analytics/internal/datasource"
	"github.com/yourusername/gridiron-analytics/internal/logger"
	"github.com/yourusername/gridiron-analytics/internal/models"
	"github.com/yourusername/gridiron-analytics/internal/prediction"
)

// CalibratedPrediction pairs a raw prediction with its calibration-adjusted
// confidence. The underlying prediction is shared with the cache and must
// not be mutated.
type CalibratedPrediction struct {
	*models.Prediction
	CalibratedConfidence float64 `json:"calibrated_confidence"`
	Adjustment           float64 `json:"adjustment"`
}

// AnalyticsService wires the rating fetcher, the cached prediction engine,
// and the calibration analyzer together.
type AnalyticsService struct {
	fetcher  *datasource.Fetcher
	engine   *prediction.CachedEngine
	analyzer *calibration.Analyzer
	audit    *logger.AuditLogger
	logger   *logrus.Logger
}

// NewAnalyticsService creates the orchestration service.
func NewAnalyticsService(
	fetcher *datasource.Fetcher,
	engine *prediction.CachedEngine,
	analyzer *calibration.Analyzer,
	audit *logger.AuditLogger,
	log *logrus.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		fetcher:  fetcher,
		engine:   engine,
		analyzer: analyzer,
		audit:    audit,
		logger:   log,
	}
}

// PredictGame produces one calibrated prediction. The raw confidence decides
// the calibration bin; the adjusted value is only attached for display.
func (s *AnalyticsService) PredictGame(ctx context.Context, season, week int, matchup models.Matchup, ratingCfg datasource.RatingConfig) (*CalibratedPrediction, error) {
	ratings, err := s.fetcher.Ratings(ctx, season, ratingCfg)
	if err != nil {
		return nil, fmt.Errorf("predict %s vs %s: %w", matchup.HomeTeamID, matchup.AwayTeamID, err)
	}

	pred, cached, err := s.engine.Predict(ctx, season, week, matchup, ratings)
	if err != nil {
		return nil, err
	}

	calibrated, adjustment := s.analyzer.AdjustedConfidence(season, pred.Confidence)
	s.audit.LogPredictionIssued(season, week, pred.HomeTeamID, pred.AwayTeamID,
		pred.PredictedWinner, pred.HomeWinProbability, pred.Confidence, cached)

	return &CalibratedPrediction{
		Prediction:           pred,
		CalibratedConfidence: calibrated,
		Adjustment:           adjustment,
	}, nil
}

// PredictWeek produces calibrated predictions for a week's slate. Games with
// a missing team rating are skipped rather than failing the slate.
func (s *AnalyticsService) PredictWeek(ctx context.Context, season, week int, matchups []models.Matchup, ratingCfg datasource.RatingConfig) ([]*CalibratedPrediction, error) {
	ratings, err := s.fetcher.Ratings(ctx, season, ratingCfg)
	if err != nil {
		return nil, fmt.Errorf("predict week %d of season %d: %w", week, season, err)
	}

	raw := s.engine.PredictWeek(ctx, season, week, matchups, ratings)

	predictions := make([]*CalibratedPrediction, 0, len(raw))
	for _, pred := range raw {
		calibrated, adjustment := s.analyzer.AdjustedConfidence(season, pred.Confidence)
		predictions = append(predictions, &CalibratedPrediction{
			Prediction:           pred,
			CalibratedConfidence: calibrated,
			Adjustment:           adjustment,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"season":    season,
		"week":      week,
		"requested": len(matchups),
		"predicted": len(predictions),
	}).Info("Week slate predicted")

	return predictions, nil
}

// CalibrationSummary returns the season's report, running a calibration if
// none is stored yet.
func (s *AnalyticsService) CalibrationSummary(ctx context.Context, season int) (*models.CalibrationReport, error) {
	if report, ok := s.analyzer.Report(season); ok {
		return report, nil
	}
	return s.RefreshCalibration(ctx, season)
}

// RefreshCalibration forces a fresh calibration run for a season.
func (s *AnalyticsService) RefreshCalibration(ctx context.Context, season int) (*models.CalibrationReport, error) {
	report, err := s.analyzer.Calibrate(ctx, season)
	if err != nil {
		return nil, err
	}
	s.audit.LogCalibrationRun(report.ID, report.Season, report.TotalPredictions(),
		report.OverallCalibration, report.Reliability, report.Sharpness,
		len(report.Recommendations), report.GeneratedAt)
	return report, nil
}

// InvalidateCalibration drops a season's stored report so the next summary
// request rebuilds it. Returns ErrNoReport when nothing is stored.
func (s *AnalyticsService) InvalidateCalibration(season int, reason string) error {
	if _, ok := s.analyzer.Report(season); !ok {
		return fmt.Errorf("%w: %d", models.ErrNoReport, season)
	}
	s.analyzer.Invalidate(season)
	s.audit.LogReportInvalidation(season, reason)
	return nil
}

// HandleGameFinal reacts to a game going final on the live feed: the week's
// cached predictions are stale, the cached resolved payload for the week is
// missing the new result, and the season's calibration report no longer
// reflects all resolved games.
func (s *AnalyticsService) HandleGameFinal(event datasource.GameFinalEvent) error {
	removed := s.engine.InvalidateWeek(event.Season, event.Week)
	s.fetcher.InvalidateResolvedWeek(event.Season, event.Week)
	s.analyzer.Invalidate(event.Season)
	s.audit.LogReportInvalidation(event.Season, "game_final")

	s.logger.WithFields(logrus.Fields{
		"season":       event.Season,
		"week":         event.Week,
		"home_team_id": event.HomeTeamID,
		"away_team_id": event.AwayTeamID,
		"invalidated":  removed,
	}).Info("Live result processed")

	return nil
}
