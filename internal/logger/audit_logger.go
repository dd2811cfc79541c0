// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for prediction and
// calibration decisions.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPredictionIssued logs a served game prediction.
func (al *AuditLogger) LogPredictionIssued(season, week int, homeTeamID, awayTeamID, predictedWinner string, homeWinProbability, confidence float64, cached bool) {
	al.WithFields(logrus.Fields{
		"season":               season,
		"week":                 week,
		"home_team_id":         homeTeamID,
		"away_team_id":         awayTeamID,
		"predicted_winner":     predictedWinner,
		"home_win_probability": homeWinProbability,
		"confidence":           confidence,
		"cached":               cached,
	}).Info("Prediction issued")
}

// LogCalibrationRun logs a completed calibration run.
func (al *AuditLogger) LogCalibrationRun(reportID uuid.UUID, season, totalPredictions int, overallCalibration, reliability, sharpness float64, recommendations int, generatedAt time.Time) {
	al.WithFields(logrus.Fields{
		"report_id":           reportID,
		"season":              season,
		"total_predictions":   totalPredictions,
		"overall_calibration": overallCalibration,
		"reliability":         reliability,
		"sharpness":           sharpness,
		"recommendations":     recommendations,
		"generated_at":        generatedAt.Unix(),
	}).Info("Calibration run recorded")
}

// LogReportInvalidation logs an explicit calibration report invalidation.
func (al *AuditLogger) LogReportInvalidation(season int, reason string) {
	al.WithFields(logrus.Fields{
		"season": season,
		"reason": reason,
	}).Info("Calibration report invalidated")
}

// LogCacheEviction logs a priority-based cache eviction.
func (al *AuditLogger) LogCacheEviction(key string, priorityClass string, idleSeconds float64, missesBeforeFirstHit uint64) {
	al.WithFields(logrus.Fields{
		"key":                     key,
		"priority_class":          priorityClass,
		"idle_seconds":            idleSeconds,
		"misses_before_first_hit": missesBeforeFirstHit,
	}).Debug("Cache entry evicted")
}
