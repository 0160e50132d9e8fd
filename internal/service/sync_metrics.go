package service

import (
	"fmt"
	"time"

	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
)

// SyncMetrics tracks the counts of one sync run
type SyncMetrics struct {
	StartTime       time.Time
	Duration        time.Duration
	Events          int
	Races           int
	CarClasses      int
	Unresolved      int
	UserStatsSynced int
	UserStatsFailed int
}

// NewSyncMetrics creates a new per-run tracker
func NewSyncMetrics(start time.Time) *SyncMetrics {
	return &SyncMetrics{StartTime: start}
}

// RecordEvent counts one committed event and its races
func (m *SyncMetrics) RecordEvent(races int) {
	m.Events++
	m.Races += races
}

// RecordUnresolved counts dropped car-class references
func (m *SyncMetrics) RecordUnresolved(n int) {
	m.Unresolved += n
	metrics.RecordUnresolvedCarClasses(n)
}

// RecordUserStats counts one per-user refresh outcome
func (m *SyncMetrics) RecordUserStats(success bool) {
	if success {
		m.UserStatsSynced++
	} else {
		m.UserStatsFailed++
	}
	metrics.RecordUserStats(success)
}

// Finish stamps the duration and publishes the run to Prometheus.
func (m *SyncMetrics) Finish(source, status string, end time.Time) {
	m.Duration = end.Sub(m.StartTime)
	metrics.RecordUpserts(m.Events, m.Races, m.CarClasses)
	metrics.RecordSyncRun(source, status, m.Duration.Seconds(), float64(end.Unix()))
}

// Summary converts the counts for the sync logger
func (m *SyncMetrics) Summary() logger.SyncSummary {
	return logger.SyncSummary{
		Events:          m.Events,
		Races:           m.Races,
		CarClasses:      m.CarClasses,
		UserStatsSynced: m.UserStatsSynced,
		UserStatsFailed: m.UserStatsFailed,
	}
}

// String returns a formatted string representation of metrics
func (m *SyncMetrics) String() string {
	return fmt.Sprintf(
		"SyncMetrics{Events=%d, Races=%d, CarClasses=%d, Unresolved=%d, UserStats=%d/%d, Duration=%v}",
		m.Events,
		m.Races,
		m.CarClasses,
		m.Unresolved,
		m.UserStatsSynced,
		m.UserStatsSynced+m.UserStatsFailed,
		m.Duration,
	)
}
