// Package logger provides sync lifecycle logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SyncLogger provides dedicated logging for sync runs.
type SyncLogger struct {
	*logrus.Entry
}

// NewSyncLogger creates a new sync logger.
func NewSyncLogger(baseLogger logrus.FieldLogger) *SyncLogger {
	return &SyncLogger{
		Entry: baseLogger.WithField("component", "sync"),
	}
}

// SyncSummary carries the counts reported when a run finishes.
type SyncSummary struct {
	Events          int
	Races           int
	CarClasses      int
	UserStatsSynced int
	UserStatsFailed int
}

// LogSyncStarted logs the start of a sync run.
func (sl *SyncLogger) LogSyncStarted(logID, source string) {
	sl.WithFields(logrus.Fields{
		"sync_log_id": logID,
		"source":      source,
	}).Info("Sync started")
}

// LogSyncSucceeded logs a successful sync run.
func (sl *SyncLogger) LogSyncSucceeded(logID, source string, summary SyncSummary, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"sync_log_id":       logID,
		"source":            source,
		"status":            "SUCCESS",
		"events":            summary.Events,
		"races":             summary.Races,
		"car_classes":       summary.CarClasses,
		"user_stats_synced": summary.UserStatsSynced,
		"user_stats_failed": summary.UserStatsFailed,
		"duration_ms":       duration.Milliseconds(),
	}).Info("Sync finished")
}

// LogSyncFailed logs a failed sync run.
func (sl *SyncLogger) LogSyncFailed(logID, source string, err error, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"sync_log_id": logID,
		"source":      source,
		"status":      "FAILURE",
		"duration_ms": duration.Milliseconds(),
	}).WithError(err).Error("Sync failed")
}

// LogSyncSkipped logs a run refused before it started.
func (sl *SyncLogger) LogSyncSkipped(source, reason string) {
	sl.WithFields(logrus.Fields{
		"source": source,
		"reason": reason,
	}).Warn("Sync skipped")
}

// LogUserStatsFailure logs one user's stats refresh failure.
func (sl *SyncLogger) LogUserStatsFailure(userID, customerID string, err error) {
	sl.WithFields(logrus.Fields{
		"user_id":     userID,
		"customer_id": customerID,
	}).WithError(err).Warn("User stats refresh failed")
}

// LogUnresolvedCarClasses logs car class references dropped from an event.
func (sl *SyncLogger) LogUnresolvedCarClasses(eventExternalID string, providerIDs []int) {
	sl.WithFields(logrus.Fields{
		"event_external_id": eventExternalID,
		"car_class_ids":     providerIDs,
	}).Debug("Dropped unresolved car classes")
}

// LogMockFallback logs that the provider client served mock data.
func (sl *SyncLogger) LogMockFallback(operation, reason string) {
	sl.WithFields(logrus.Fields{
		"operation": operation,
		"reason":    reason,
	}).Warn("Serving mock provider data")
}
