package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerDefaultsToInfoOnBadLevel(t *testing.T) {
	log := NewLogger("not-a-level")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerParsesLevel(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	t.Setenv("GRIDIRON_ENV", "production")
	log := NewLogger("info")
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewLoggerDevelopmentUsesText(t *testing.T) {
	t.Setenv("GRIDIRON_ENV", "development")
	log := NewLogger("info")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestAuditLoggerPredictionIssued(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogPredictionIssued(2025, 3, "KC", "BUF", "KC", 61, 44, true)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "KC", logEntry["predicted_winner"])
	assert.Equal(t, true, logEntry["cached"])
}

func TestAuditLoggerCacheEviction(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogCacheEviction("scratch:backtest:tmp", "scratch", 12.5, 3)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scratch:backtest:tmp", logEntry["key"])
	assert.Equal(t, "scratch", logEntry["priority_class"])
	assert.Equal(t, float64(3), logEntry["misses_before_first_hit"])
}

func TestAuditLoggerCalibrationRun(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	reportID := uuid.New()
	auditLogger.LogCalibrationRun(reportID, 2025, 272, 91.5, 88.0, 42.0, 1, time.Now())

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, reportID.String(), logEntry["report_id"])
	assert.Equal(t, float64(272), logEntry["total_predictions"])
}
