package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type countingExecutor struct {
	executeFunc func(ctx context.Context, job *Job) error
	execCount   int32
}

func (m *countingExecutor) Execute(ctx context.Context, job *Job) error {
	atomic.AddInt32(&m.execCount, 1)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, job)
	}
	return nil
}

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

// ---------------------------------------------------------------------------
// Job Tests
// ---------------------------------------------------------------------------

func TestNewJob(t *testing.T) {
	tenantID, reportID := uuid.New(), uuid.New()
	due := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	job := NewJob(tenantID, reportID, due, 2)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, reportID, job.SavedReportID)
	assert.Equal(t, due, job.DueAt)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 2, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 1)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Fail("smtp down")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp down", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Fail("still down")
	assert.False(t, job.ShouldRetry())

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := DefaultSchedulerConfig()

	assert.Equal(t, 3, cfg.MaxConcurrentJobs)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 0, cfg.RetryAttempts)
}

// ---------------------------------------------------------------------------
// Scheduler Tests
// ---------------------------------------------------------------------------

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &countingExecutor{}, newTestLogger())

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())

	stopScheduler(t, s)
	stopScheduler(t, s)
	assert.False(t, s.IsRunning())
}

func TestScheduler_SubmitJob_NotRunning(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &countingExecutor{}, newTestLogger())

	err := s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0))

	assert.Equal(t, ErrSchedulerNotRunning, err)
}

func TestScheduler_SubmitJob_QueueFull(t *testing.T) {
	block := make(chan struct{})
	executor := &countingExecutor{executeFunc: func(ctx context.Context, job *Job) error {
		<-block
		return nil
	}}
	cfg := DefaultSchedulerConfig()
	cfg.MaxConcurrentJobs = 1
	cfg.QueueSize = 1
	s := NewScheduler(cfg, executor, newTestLogger())
	require.NoError(t, s.Start(context.Background()))

	// first job occupies the worker, second fills the queue
	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0)))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&executor.execCount) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0)))

	err := s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0))
	assert.Equal(t, ErrJobQueueFull, err)

	close(block)
	stopScheduler(t, s)
}

func TestScheduler_ExecutesJobs(t *testing.T) {
	executor := &countingExecutor{}
	s := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, s.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0)))
	}

	require.Eventually(t, func() bool {
		completed, _ := s.Stats()
		return completed == 5
	}, 2*time.Second, 10*time.Millisecond)

	stopScheduler(t, s)
	assert.Equal(t, int32(5), atomic.LoadInt32(&executor.execCount))
}

func TestScheduler_JobRetry(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.RetryAttempts = 5
	cfg.RetryDelay = 10 * time.Millisecond

	callCount := int32(0)
	executor := &countingExecutor{executeFunc: func(ctx context.Context, job *Job) error {
		if atomic.AddInt32(&callCount, 1) < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}}
	s := NewScheduler(cfg, executor, newTestLogger())
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), cfg.RetryAttempts)))

	require.Eventually(t, func() bool {
		completed, _ := s.Stats()
		return completed == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopScheduler(t, s)
	_, failed := s.Stats()
	assert.Equal(t, int64(2), failed)
	assert.Equal(t, int32(3), atomic.LoadInt32(&callCount))
}

func TestScheduler_NoRetryByDefault(t *testing.T) {
	executor := &countingExecutor{executeFunc: func(ctx context.Context, job *Job) error {
		return errors.New("boom")
	}}
	s := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0)))
	require.Eventually(t, func() bool {
		_, failed := s.Stats()
		return failed == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	stopScheduler(t, s)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))
}

func TestScheduler_JobTimeout(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.JobTimeout = 20 * time.Millisecond

	var deadlineErr atomic.Value
	executor := &countingExecutor{executeFunc: func(ctx context.Context, job *Job) error {
		<-ctx.Done()
		deadlineErr.Store(ctx.Err())
		return ctx.Err()
	}}
	s := NewScheduler(cfg, executor, newTestLogger())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.SubmitJob(NewJob(uuid.New(), uuid.New(), time.Now(), 0)))

	require.Eventually(t, func() bool { return deadlineErr.Load() != nil }, time.Second, 5*time.Millisecond)
	stopScheduler(t, s)
	assert.ErrorIs(t, deadlineErr.Load().(error), context.DeadlineExceeded)
}

func TestJobExecutorFunc(t *testing.T) {
	called := false
	var exec JobExecutor = JobExecutorFunc(func(ctx context.Context, job *Job) error {
		called = true
		return nil
	})

	require.NoError(t, exec.Execute(context.Background(), NewJob(uuid.New(), uuid.New(), time.Now(), 0)))
	assert.True(t, called)
}
