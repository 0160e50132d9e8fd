// Package service holds the sync orchestration that ties the provider client to the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/datasource"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/repository"
)

// SyncResult is the structured outcome of one sync run. Run never returns an error;
// failures are reported here.
type SyncResult struct {
	Success         bool          `json:"success"`
	Error           string        `json:"error,omitempty"`
	LogID           string        `json:"log_id,omitempty"`
	Events          int           `json:"events"`
	Races           int           `json:"races"`
	CarClasses      int           `json:"car_classes"`
	UserStatsSynced int           `json:"user_stats_synced"`
	UserStatsFailed int           `json:"user_stats_failed"`
	Duration        time.Duration `json:"duration"`
}

// PageInvalidator drops cached rendered views
type PageInvalidator interface {
	InvalidatePrefix(prefix string) int
}

// finalizeTimeout bounds the terminal sync log write, which runs detached from the caller's context.
const finalizeTimeout = 10 * time.Second

// SyncService coordinates a full refresh from the provider into the store
type SyncService struct {
	enabled    bool
	provider   datasource.Provider
	carClasses repository.CarClassRepository
	events     repository.EventUnitOfWork
	syncLogs   repository.SyncLogRepository
	users      repository.UserRepository
	userStats  UserStatsSyncer
	pages      PageInvalidator
	logger     logrus.FieldLogger
	syncLogger *logger.SyncLogger
	now        func() time.Time
}

// NewSyncService creates a new sync service. pages may be nil.
func NewSyncService(
	enabled bool,
	provider datasource.Provider,
	repos *repository.Repositories,
	userStats UserStatsSyncer,
	pages PageInvalidator,
	log logrus.FieldLogger,
) *SyncService {
	return &SyncService{
		enabled:    enabled,
		provider:   provider,
		carClasses: repos.CarClass,
		events:     repos.Events,
		syncLogs:   repos.SyncLog,
		users:      repos.User,
		userStats:  userStats,
		pages:      pages,
		logger:     log.WithField("component", "sync_service"),
		syncLogger: logger.NewSyncLogger(log),
		now:        time.Now,
	}
}

// Run performs one sync: fetch, reconcile car classes then events, refresh user stats,
// finalize the log entry and invalidate cached pages.
func (s *SyncService) Run(ctx context.Context, source models.SyncSource) SyncResult {
	if !s.enabled {
		s.syncLogger.LogSyncSkipped(string(source), models.ErrIntegrationDisabled.Error())
		return SyncResult{Error: models.ErrIntegrationDisabled.Error()}
	}

	metrics.SyncInProgress.Inc()
	defer metrics.SyncInProgress.Dec()

	start := s.now()
	run := NewSyncMetrics(start)

	entry, err := s.syncLogs.Create(ctx, source, start)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create sync log entry")
		run.Finish(string(source), string(models.SyncStatusFailure), s.now())
		return SyncResult{Error: fmt.Sprintf("failed to create sync log: %v", err)}
	}
	logID := entry.ID.String()
	s.syncLogger.LogSyncStarted(logID, string(source))

	committed, runErr := s.reconcile(ctx, start, run)
	if runErr == nil {
		s.syncAllUserStats(ctx, run)
	}

	status := models.SyncStatusSuccess
	var errMsg *string
	if runErr != nil {
		status = models.SyncStatusFailure
		errMsg = lo.ToPtr(runErr.Error())
	}

	end := s.now()
	finalizeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := s.syncLogs.Finalize(finalizeCtx, entry.ID, status, run.Events, errMsg, end); err != nil {
		s.logger.WithError(err).WithField("sync_log_id", logID).Error("Failed to finalize sync log entry")
		if runErr == nil {
			status = models.SyncStatusFailure
			runErr = fmt.Errorf("failed to finalize sync log: %w", err)
		}
	}

	s.invalidatePages(committed)
	run.Finish(string(source), string(status), end)

	result := SyncResult{
		Success:         runErr == nil,
		LogID:           logID,
		Events:          run.Events,
		Races:           run.Races,
		CarClasses:      run.CarClasses,
		UserStatsSynced: run.UserStatsSynced,
		UserStatsFailed: run.UserStatsFailed,
		Duration:        run.Duration,
	}
	if runErr != nil {
		result.Error = runErr.Error()
		s.syncLogger.LogSyncFailed(logID, string(source), runErr, run.Duration)
	} else {
		s.syncLogger.LogSyncSucceeded(logID, string(source), run.Summary(), run.Duration)
	}

	return result
}

// reconcile fetches both upstream datasets concurrently, then writes car classes and
// one transaction per event. It returns the external ids of committed events.
func (s *SyncService) reconcile(ctx context.Context, now time.Time, run *SyncMetrics) ([]string, error) {
	var (
		events  []models.NormalizedEvent
		classes []models.CarClass
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.provider.FetchSpecialEvents(gctx, now)
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		classes, err = s.provider.FetchCarClasses(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch car classes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	classIDs, err := s.carClasses.Upsert(ctx, classes)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert car classes: %w", err)
	}
	run.CarClasses = len(classIDs)

	committed := make([]string, 0, len(events))
	for i := range events {
		ev := &events[i]

		resolved, missing := resolveCarClasses(ev.CarClassIDs, classIDs)
		if len(missing) > 0 {
			s.syncLogger.LogUnresolvedCarClasses(ev.ExternalID, missing)
			run.RecordUnresolved(len(missing))
		}

		err := s.events.WithinEvent(ctx, func(w repository.EventWriter) error {
			eventID, err := w.UpsertEvent(ctx, ev, resolved)
			if err != nil {
				return err
			}
			for j := range ev.Races {
				if _, err := w.UpsertRace(ctx, eventID, &ev.Races[j]); err != nil {
					return fmt.Errorf("race %s: %w", ev.Races[j].ExternalID, err)
				}
			}
			return nil
		})
		if err != nil {
			return committed, fmt.Errorf("failed to upsert event %s: %w", ev.ExternalID, err)
		}

		run.RecordEvent(len(ev.Races))
		committed = append(committed, ev.ExternalID)
	}

	return committed, nil
}

// syncAllUserStats refreshes every linked user one at a time. Failures are isolated
// per user, and a failure to list users only skips the fan-out.
func (s *SyncService) syncAllUserStats(ctx context.Context, run *SyncMetrics) {
	if s.userStats == nil {
		return
	}

	users, err := s.users.ListWithCustomerID(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list users for stats refresh")
		return
	}

	for _, u := range users {
		res := s.userStats.SyncUserStats(ctx, u.ID, nil)
		run.RecordUserStats(res.Success)
		if !res.Success {
			s.syncLogger.LogUserStatsFailure(u.ID.String(), lo.FromPtr(u.IRacingCustomerID), errors.New(res.Error))
		}
	}
}

func (s *SyncService) invalidatePages(externalIDs []string) {
	if s.pages == nil {
		return
	}
	removed := s.pages.InvalidatePrefix(cache.ListPagePrefix)
	for _, id := range externalIDs {
		removed += s.pages.InvalidatePrefix(cache.EventPagePrefix(id))
	}
	s.logger.WithField("pages", removed).Debug("Invalidated cached pages")
}

// resolveCarClasses maps provider ids to internal ids. Ids absent from the batch are
// returned separately and left off the event.
func resolveCarClasses(providerIDs []int, known map[int]uuid.UUID) ([]uuid.UUID, []int) {
	unique := lo.Uniq(providerIDs)
	missing := lo.Filter(unique, func(id int, _ int) bool {
		_, ok := known[id]
		return !ok
	})
	resolved := lo.FilterMap(unique, func(id int, _ int) (uuid.UUID, bool) {
		internal, ok := known[id]
		return internal, ok
	})
	return resolved, missing
}
