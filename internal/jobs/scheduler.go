// Package jobs runs periodic maintenance tasks on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/tripwiser/internal/metrics"
)

// Func is one run of a job.
type Func func(ctx context.Context) error

// Scheduler runs named jobs. A run that is still in progress when its next
// tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewScheduler creates a scheduler. Each run gets its own context bounded by timeout.
func NewScheduler(timeout time.Duration) *Scheduler {
	logger := slogAdapter{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Add registers fn under name on a standard five-field cron spec or a
// descriptor such as "@hourly". An empty spec leaves the job disabled.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	if spec == "" {
		slog.Info("Job disabled", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	slog.Info("Job scheduled", "job", name, "schedule", spec)
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, fn Func) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.RecordJobRun(name, err)
	if err != nil {
		slog.Error("Job failed", "job", name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	slog.Debug("Job completed", "job", name, "duration_ms", time.Since(start).Milliseconds())
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
