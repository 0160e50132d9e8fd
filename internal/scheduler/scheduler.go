// Package scheduler runs CRON-sourced syncs on a configured schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/service"
)

const defaultJobTimeout = 30 * time.Minute

// SyncRunner runs one sync
type SyncRunner interface {
	Run(ctx context.Context, source models.SyncSource) service.SyncResult
}

// Scheduler manages the scheduled sync job
type Scheduler struct {
	cron       *cron.Cron
	runner     SyncRunner
	logger     logrus.FieldLogger
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
	running    sync.Mutex
}

// NewScheduler creates a new scheduler evaluating schedules in loc
func NewScheduler(runner SyncRunner, loc *time.Location, logger logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		runner:     runner,
		logger:     logger.WithField("component", "scheduler"),
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: defaultJobTimeout,
	}
}

// ScheduleSync adds a CRON-sourced sync on a standard five-field expression.
// A tick that fires while the previous sync is still running is skipped.
func (s *Scheduler) ScheduleSync(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.runSync)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", cronExpression).Info("Scheduled sync job")

	return nil
}

func (s *Scheduler) runSync() {
	if !s.running.TryLock() {
		s.logger.Warn("Previous scheduled sync still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	result := s.runner.Run(ctx, models.SyncSourceCron)
	entry := s.logger.WithFields(logrus.Fields{
		"sync_log_id": result.LogID,
		"events":      result.Events,
	})
	if !result.Success {
		entry.WithField("error", result.Error).Warn("Scheduled sync failed")
		return
	}
	entry.Info("Scheduled sync completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled sync, or zero when stopped
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	next := time.Time{}
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}
