// Package scheduler runs the engine's periodic jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/goroutine"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns the gocron scheduler. Cron expressions are
// evaluated in the reference timezone.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Jobs run under this context with no deadline; Stop cancels it.
	jobCtx    context.Context
	cancelJob context.CancelFunc

	started   bool
	stopped   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a scheduler whose cron expressions are read
// in zone.
func NewSchedulerManager(zone biztime.Zone, log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(zone.Location()),
	)
	if err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(context.Background())

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
		jobCtx:    jobCtx,
		cancelJob: cancel,
	}, nil
}

// RegisterTrialExpiryJob schedules the trial reconciliation on cronExpr.
// Singleton mode skips a tick while the previous run is still going.
func (m *SchedulerManager) RegisterTrialExpiryJob(cronExpr string, job BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			m.processExpiredTrials(m.jobCtx, job)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "trial", "expire"),
		gocron.WithName("trial-expiry-reconciliation"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered trial expiry job", "cron", cronExpr)
	return nil
}

func (m *SchedulerManager) processExpiredTrials(ctx context.Context, job BatchJob) {
	m.logger.Debugw("trial expiry reconciliation started")

	startTime := time.Now()

	count, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("trial expiry reconciliation failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("expired trials processed",
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no expired trials to process",
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler immediately. It is a no-op once Stop has
// been called.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	if m.stopped {
		m.logger.Warnw("scheduler manager already stopped, ignoring start")
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// StartAfter starts the scheduler once delay has elapsed, unless ctx is
// cancelled first. The returned channel closes when the wait is over.
func (m *SchedulerManager) StartAfter(ctx context.Context, delay time.Duration) <-chan struct{} {
	if delay <= 0 {
		m.Start()
		done := make(chan struct{})
		close(done)
		return done
	}

	m.logger.Infow("scheduler start delayed", "delay", delay)

	return goroutine.SafeGoDone(m.logger, "scheduler-start", func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			m.Start()
		case <-ctx.Done():
			m.logger.Infow("scheduler start cancelled", "reason", ctx.Err())
		}
	})
}

// Stop gracefully stops the scheduler.
// It cancels the job context and waits for running jobs to return.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	m.cancelJob()
	m.stopped = true

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
