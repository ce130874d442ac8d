package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the snapshot job on a fixed interval, once at start and
// never two runs at the same time.
type Scheduler struct {
	job      *SnapshotJob
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	sched   gocron.Scheduler
	cancel  context.CancelFunc
}

func NewScheduler(job *SnapshotJob, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{job: job, interval: interval, logger: logger}
}

// Start registers the job and starts the scheduler. Returns an error if
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("snapshot scheduler is already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("snapshot interval must be positive, got %v", s.interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.job.Run(runCtx); err != nil {
				s.logger.ErrorContext(runCtx, "Snapshot run failed", "error", err)
			}
		}),
		gocron.WithName("daily-snapshots"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return fmt.Errorf("register snapshot job: %w", err)
	}

	sched.Start()
	s.sched = sched
	s.cancel = cancel
	s.running = true

	s.logger.InfoContext(ctx, "Snapshot scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels an in-flight run and waits for the scheduler to shut down.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cancel()
	err := s.sched.Shutdown()
	s.running = false
	s.sched = nil
	if err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	s.logger.Info("Snapshot scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
