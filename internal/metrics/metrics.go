// Package metrics provides the centralized Prometheus metrics registry for pitwall.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitwall"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SyncRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of sync runs by trigger source and final status",
	}, []string{"source", "status"})
	EventsUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_upserted_total",
		Help:      "Total number of events written by sync",
	})
	RacesUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_upserted_total",
		Help:      "Total number of races written by sync",
	})
	CarClassesUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "car_classes_upserted_total",
		Help:      "Total number of car classes written by sync",
	})
	UserStatsSyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_stats_sync_total",
		Help:      "Total number of per-user stats refreshes by outcome",
	}, []string{"outcome"})
	UnresolvedCarClassesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unresolved_car_classes_total",
		Help:      "Total number of event car-class references dropped because the class was not in the batch",
	})
	PageCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_cache_requests_total",
		Help:      "Total number of rendered page lookups by result",
	}, []string{"result"})
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of chat notifications by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	LastSyncTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix time of the last finished sync by status",
	}, []string{"status"})
	SyncInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_in_progress",
		Help:      "Number of sync runs currently executing",
	})
)

// Histogram metrics
var (
	SyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync runs in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register sync metrics
		registry.MustRegister(SyncRunsTotal)
		registry.MustRegister(EventsUpsertedTotal)
		registry.MustRegister(RacesUpsertedTotal)
		registry.MustRegister(CarClassesUpsertedTotal)
		registry.MustRegister(UserStatsSyncTotal)
		registry.MustRegister(UnresolvedCarClassesTotal)
		registry.MustRegister(LastSyncTimestamp)
		registry.MustRegister(SyncInProgress)
		registry.MustRegister(SyncDuration)
		registry.MustRegister(PageCacheRequestsTotal)
		registry.MustRegister(NotificationsTotal)

		// Register upstream metrics
		registry.MustRegister(UpstreamRequestsTotal)
		registry.MustRegister(UpstreamRequestDuration)
		registry.MustRegister(CircuitBreakerState)
		registry.MustRegister(CircuitBreakerTransitions)
		registry.MustRegister(CircuitBreakerRequests)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSyncRun records a finished sync run.
func RecordSyncRun(source, status string, durationSeconds float64, finishedAt float64) {
	SyncRunsTotal.WithLabelValues(source, status).Inc()
	SyncDuration.WithLabelValues(source).Observe(durationSeconds)
	LastSyncTimestamp.WithLabelValues(status).Set(finishedAt)
}

// RecordUpserts adds the write counts of one sync run.
func RecordUpserts(events, races, carClasses int) {
	EventsUpsertedTotal.Add(float64(events))
	RacesUpsertedTotal.Add(float64(races))
	CarClassesUpsertedTotal.Add(float64(carClasses))
}

// RecordUserStats records one per-user stats refresh outcome.
func RecordUserStats(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	UserStatsSyncTotal.WithLabelValues(outcome).Inc()
}

// RecordUnresolvedCarClasses counts dropped car-class references.
func RecordUnresolvedCarClasses(n int) {
	UnresolvedCarClassesTotal.Add(float64(n))
}

// RecordPageCache records one page cache lookup.
func RecordPageCache(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	PageCacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordNotification records one chat notification attempt.
func RecordNotification(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	NotificationsTotal.WithLabelValues(outcome).Inc()
}
