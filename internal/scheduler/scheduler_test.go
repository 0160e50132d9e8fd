package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/service"
)

type countingRunner struct {
	calls   atomic.Int32
	sources chan models.SyncSource
	block   chan struct{}
}

func (r *countingRunner) Run(ctx context.Context, source models.SyncSource) service.SyncResult {
	r.calls.Add(1)
	if r.sources != nil {
		r.sources <- source
	}
	if r.block != nil {
		<-r.block
	}
	return service.SyncResult{Success: true}
}

func TestScheduler_RejectsInvalidExpression(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, logger.Discard())
	assert.Error(t, s.ScheduleSync("every tuesday"))
}

func TestScheduler_StartRequiresJob(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, logger.Discard())
	assert.Error(t, s.Start())
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := NewScheduler(&countingRunner{}, time.UTC, logger.Discard())
	require.NoError(t, s.ScheduleSync("*/15 * * * *"))

	assert.True(t, s.NextRun().IsZero())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.IsRunning())
	next := s.NextRun()
	assert.False(t, next.IsZero())
	assert.Zero(t, next.Minute()%15)

	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleSync("0 * * * *"))
}

func TestScheduler_RunSyncUsesCronSource(t *testing.T) {
	runner := &countingRunner{sources: make(chan models.SyncSource, 1)}
	s := NewScheduler(runner, nil, logger.Discard())

	s.runSync()

	assert.Equal(t, models.SyncSourceCron, <-runner.sources)
}

func TestScheduler_SkipsOverlappingTick(t *testing.T) {
	runner := &countingRunner{sources: make(chan models.SyncSource, 2), block: make(chan struct{})}
	s := NewScheduler(runner, nil, logger.Discard())

	done := make(chan struct{})
	go func() {
		s.runSync()
		close(done)
	}()
	<-runner.sources

	s.runSync()
	close(runner.block)
	<-done

	assert.Equal(t, int32(1), runner.calls.Load())
}
