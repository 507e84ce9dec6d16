package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"go.uber.org/zap"
)

// DueFinder lists saved reports whose schedule is due at now
type DueFinder interface {
	FindDue(ctx context.Context, now time.Time, limit int) ([]*report.SavedReport, error)
}

// Locker grants a key to at most one holder until ttl expires
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DispatcherConfig holds configuration for the due-schedule dispatcher
type DispatcherConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
	LockTTL      time.Duration
	Pool         SchedulerConfig
}

// DefaultDispatcherConfig polls every minute
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Enabled:      true,
		PollInterval: time.Minute,
		BatchSize:    50,
		LockTTL:      30 * time.Minute,
		Pool:         DefaultSchedulerConfig(),
	}
}

// Validate checks the dispatcher configuration
func (c DispatcherConfig) Validate() error {
	if c.PollInterval < time.Second {
		return fmt.Errorf("%w: poll interval must be at least 1s", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("%w: lock ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// DispatcherStatus is a snapshot of the dispatcher state
type DispatcherStatus struct {
	Enabled         bool          `json:"enabled"`
	IsRunning       bool          `json:"is_running"`
	PollInterval    string        `json:"poll_interval"`
	Workers         int           `json:"workers"`
	LastPollAt      *time.Time    `json:"last_poll_at,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	LastDispatched  int           `json:"last_dispatched"`
	TotalDispatched int64         `json:"total_dispatched"`
	Completed       int64         `json:"completed"`
	Failed          int64         `json:"failed"`
	Uptime          time.Duration `json:"uptime_ns"`
}

// Dispatcher polls for due schedules and submits one delivery job per
// schedule occurrence to the worker pool
type Dispatcher struct {
	config    DispatcherConfig
	finder    DueFinder
	locker    Locker
	scheduler *Scheduler
	clock     shared.Clock
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	startedAt time.Time

	lastPollAt      *time.Time
	lastError       string
	lastDispatched  int
	totalDispatched int64
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	config DispatcherConfig,
	finder DueFinder,
	locker Locker,
	executor JobExecutor,
	clock shared.Clock,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	return &Dispatcher{
		config:    config,
		finder:    finder,
		locker:    locker,
		scheduler: NewScheduler(config.Pool, executor, logger),
		clock:     clock,
		logger:    logger,
	}, nil
}

// Start starts the worker pool and the poll loop
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.startedAt = d.clock.Now()
	d.mu.Unlock()

	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.pollLoop(ctx)

	d.logger.Info("Report delivery dispatcher started",
		zap.Duration("poll_interval", d.config.PollInterval),
		zap.Int("batch_size", d.config.BatchSize),
	)
	return nil
}

// Stop stops polling and drains the worker pool
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := d.scheduler.Stop(ctx); err != nil {
			d.logger.Warn("Error stopping delivery worker pool", zap.Error(err))
		}
		d.logger.Info("Report delivery dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Report delivery dispatcher stop timed out")
		return ctx.Err()
	}
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchDue(ctx); err != nil {
				d.logger.Error("Failed to dispatch due report schedules", zap.Error(err))
			}
		}
	}
}

// DispatchDue submits a job for every due schedule whose occurrence lock
// could be taken and returns the number of jobs submitted
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.clock.Now()
	due, err := d.finder.FindDue(ctx, now, d.config.BatchSize)
	if err != nil {
		d.recordPoll(now, 0, err)
		return 0, fmt.Errorf("failed to find due schedules: %w", err)
	}

	submitted := 0
	for _, r := range due {
		s := r.ScheduleOrEmpty()
		if !s.IsDue(now) {
			continue
		}
		key := OccurrenceKey(r, *s.NextRun)
		if d.locker != nil {
			ok, err := d.locker.Acquire(ctx, key, d.config.LockTTL)
			if err != nil {
				d.logger.Warn("Failed to acquire delivery lock", zap.String("key", key), zap.Error(err))
				continue
			}
			if !ok {
				d.logger.Debug("Delivery already claimed", zap.String("key", key))
				continue
			}
		}

		job := NewJob(r.TenantID, r.ID, *s.NextRun, d.config.Pool.RetryAttempts)
		if err := d.scheduler.SubmitJob(job); err != nil {
			d.logger.Error("Failed to submit delivery job",
				zap.String("tenant_id", r.TenantID.String()),
				zap.String("saved_report_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		submitted++
	}

	d.recordPoll(now, submitted, nil)
	if submitted > 0 {
		d.logger.Info("Dispatched report deliveries", zap.Int("count", submitted))
	}
	return submitted, nil
}

func (d *Dispatcher) recordPoll(now time.Time, submitted int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastPollAt = &now
	d.lastDispatched = submitted
	d.totalDispatched += int64(submitted)
	d.lastError = ""
	if err != nil {
		d.lastError = err.Error()
	}
}

// Status returns the current state of the dispatcher
func (d *Dispatcher) Status() DispatcherStatus {
	completed, failed := d.scheduler.Stats()

	d.mu.Lock()
	defer d.mu.Unlock()
	st := DispatcherStatus{
		Enabled:         d.config.Enabled,
		IsRunning:       d.isRunning,
		PollInterval:    d.config.PollInterval.String(),
		Workers:         d.config.Pool.MaxConcurrentJobs,
		LastPollAt:      d.lastPollAt,
		LastError:       d.lastError,
		LastDispatched:  d.lastDispatched,
		TotalDispatched: d.totalDispatched,
		Completed:       completed,
		Failed:          failed,
	}
	if d.isRunning {
		st.Uptime = d.clock.Now().Sub(d.startedAt)
	}
	return st
}

// OccurrenceKey identifies one scheduled occurrence of a saved report
func OccurrenceKey(r *report.SavedReport, due time.Time) string {
	return fmt.Sprintf("report:delivery:%s:%d", r.ID, due.Unix())
}
