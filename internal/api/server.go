// Package api exposes the sync triggers, calendar exports and health checks over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/notify"
	"github.com/yourusername/pitwall/internal/repository"
	"github.com/yourusername/pitwall/internal/service"
)

// SyncRunner runs one sync
type SyncRunner interface {
	Run(ctx context.Context, source models.SyncSource) service.SyncResult
}

// EventNotifier announces a stored event
type EventNotifier interface {
	NotifyEvent(ctx context.Context, externalID string) (*notify.Payload, error)
}

// SyncLogLister lists recent sync runs
type SyncLogLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.SyncLog, error)
}

// DriverStatsLister reads the stored license stats of one user
type DriverStatsLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DriverStats, error)
}

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// UpstreamState reports the upstream circuit breaker state
type UpstreamState interface {
	State() string
}

// Dependencies are the collaborators the HTTP surface calls into. Everything after
// Pages may be nil.
type Dependencies struct {
	Sync        SyncRunner
	UserStats   service.UserStatsSyncer
	Events      repository.EventRepository
	Pages       *cache.PageCache
	SyncLogs    SyncLogLister
	DriverStats DriverStatsLister
	Notifier    EventNotifier
	DB          DatabasePinger
	Upstream    UpstreamState
	Tokens      *TokenManager
}

// Server is the HTTP surface of pitwall
type Server struct {
	cfg     *config.Config
	deps    Dependencies
	logger  logrus.FieldLogger
	router  chi.Router
	server  *http.Server
	mu      sync.RWMutex
	ready   bool
	version string
}

// NewServer creates the server and mounts every route
func NewServer(cfg *config.Config, deps Dependencies, version string, logger logrus.FieldLogger) *Server {
	if deps.Pages == nil {
		deps.Pages = cache.NewPageCache(cfg.CacheTTL())
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.WithField("component", "api"),
		version: version,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/live", s.handleLive)
	r.Get("/ready", s.handleReady)
	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/cron", func(r chi.Router) {
			r.Use(RequireCronSecret(s.cfg.Sync.CronSecret))
			r.Get("/sync", s.handleSync(models.SyncSourceCron))
			r.Post("/sync", s.handleSync(models.SyncSourceCron))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(s.deps.Tokens))
			r.Post("/sync", s.handleSync(models.SyncSourceManual))
			r.Get("/sync-logs", s.handleSyncLogs)
			r.Get("/users/{userID}/stats", s.handleStoredUserStats)
			r.Post("/users/{userID}/stats", s.handleUserStats)
			r.Post("/events/{externalID}/notify", s.handleNotify)
		})

		r.Get("/events", s.handleUpcoming)
		r.Get("/events/{externalID}/calendar.ics", s.handleCalendarICS)
		r.Get("/events/{externalID}/calendar-links", s.handleCalendarLinks)
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  secondsOr(s.cfg.Server.ReadTimeoutSeconds, 15),
		WriteTimeout: secondsOr(s.cfg.Server.WriteTimeoutSeconds, 15*60),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.cfg.Server.Port).Info("HTTP server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": chimiddleware.GetReqID(r.Context()),
			"duration":   time.Since(start).String(),
		}).Debug("HTTP request")
	})
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}
