package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

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

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hello")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "loud", "development")

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	assert.Contains(t, buf.String(), "Invalid log level 'loud'")
}

func TestSyncLoggerStarted(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogSyncStarted("log-1", "MANUAL")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "sync", logEntry["component"])
	assert.Equal(t, "log-1", logEntry["sync_log_id"])
	assert.Equal(t, "MANUAL", logEntry["source"])
}

func TestSyncLoggerSucceeded(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogSyncSucceeded("log-2", "CRON", SyncSummary{
		Events:          4,
		Races:           9,
		CarClasses:      3,
		UserStatsSynced: 2,
		UserStatsFailed: 1,
	}, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "SUCCESS", logEntry["status"])
	assert.Equal(t, float64(4), logEntry["events"])
	assert.Equal(t, float64(1), logEntry["user_stats_failed"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestSyncLoggerFailed(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogSyncFailed("log-3", "MANUAL", errors.New("upstream 503"), time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "FAILURE", logEntry["status"])
	assert.Equal(t, "upstream 503", logEntry["error"])
}

func TestSyncLoggerUserStatsFailure(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogUserStatsFailure("user-7", "123456", errors.New("member not found"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "123456", logEntry["customer_id"])
}

func TestSyncLoggerUnresolvedCarClasses(t *testing.T) {
	log, buf := setupTestLogger()
	syncLogger := NewSyncLogger(log)

	syncLogger.LogUnresolvedCarClasses("ir_1_2_w0", []int{7, 8})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, []interface{}{float64(7), float64(8)}, logEntry["car_class_ids"])
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().WithField("k", "v").Error("dropped")
	})
}
