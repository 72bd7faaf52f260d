// Package scheduler runs the maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// BatchJob processes one batch per Execute call and returns the number of
// items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

const (
	defaultCompletionInterval = 15 * time.Minute
	pruneInterval             = 24 * time.Hour
	jobTimeout                = 5 * time.Minute
)

// SchedulerManager owns the gocron scheduler of the worker process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a scheduler in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterBookingJobs registers the job that completes bookings whose slot
// has ended. It runs immediately and then every interval.
func (m *SchedulerManager) RegisterBookingJobs(completePastBookings BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultCompletionInterval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			m.runBatch(ctx, "complete-past-bookings", completePastBookings)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("booking", "complete"),
		gocron.WithName("booking-completion"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered booking jobs", "interval", interval.String())
	return nil
}

// RegisterLedgerJobs registers the daily webhook ledger pruning at 04:00.
func (m *SchedulerManager) RegisterLedgerJobs(pruneWebhookEvents BatchJob) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 4 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			m.runBatch(ctx, "prune-webhook-events", pruneWebhookEvents)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("webhook", "prune"),
		gocron.WithName("webhook-ledger-prune"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered ledger jobs", "schedule", "04:00")
	return nil
}

func (m *SchedulerManager) runBatch(ctx context.Context, name string, job BatchJob) {
	m.logger.Debugw("batch job started", "job", name)

	startTime := biztime.NowUTC()
	count, err := job.Execute(ctx)
	if err != nil {
		// Shutdown cancels the context; that is not a failure.
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("batch job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("batch job processed items",
			"job", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("batch job found nothing to process",
			"job", name,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler in the background.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to finish, then stops the scheduler.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

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

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
