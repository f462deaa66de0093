package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Vodeneev/overunder/internal/pkg/notify"
	"github.com/Vodeneev/overunder/internal/pkg/runstats"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("season run already in progress")

const notifyTimeout = 30 * time.Second

// SeasonRunner is implemented by *Runner.
type SeasonRunner interface {
	Run(ctx context.Context) (runstats.Summary, error)
}

// Job serializes season runs coming from the scheduler and manual triggers,
// and reports every finished run to the notifier.
type Job struct {
	runner   SeasonRunner
	notifier notify.Notifier

	running atomic.Bool
	wg      sync.WaitGroup
}

func NewJob(runner SeasonRunner, notifier notify.Notifier) *Job {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Job{runner: runner, notifier: notifier}
}

// Run performs one season run unless another one is active.
func (j *Job) Run(ctx context.Context) (runstats.Summary, error) {
	if !j.running.CompareAndSwap(false, true) {
		return runstats.Summary{}, ErrRunInProgress
	}
	defer j.running.Store(false)
	return j.run(ctx)
}

// Trigger starts a run in the background. It reports false when one is already active.
func (j *Job) Trigger(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		slog.Info("Skipping run, previous one still in progress")
		return false
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer j.running.Store(false)
		_, _ = j.run(ctx)
	}()
	return true
}

func (j *Job) run(ctx context.Context) (runstats.Summary, error) {
	start := time.Now()
	summary, err := j.runner.Run(ctx)
	totals := summary.Totals()
	if err != nil {
		slog.Error("Season run failed", "run_id", summary.RunID, "error", err, "duration", time.Since(start))
	} else {
		slog.Info("Season run finished", "run_id", summary.RunID, "duration", time.Since(start),
			"found", totals.Found, "with_line", totals.WithLine, "stored", totals.Stored, "failed", totals.Failed)
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if nerr := j.notifier.Notify(notifyCtx, summary); nerr != nil {
		slog.Warn("Failed to send run summary", "error", nerr)
	}
	return summary, err
}

// Running reports whether a run is in progress.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Wait blocks until every triggered run has returned.
func (j *Job) Wait() {
	j.wg.Wait()
}

// Schedule runs the job on every tick of spec until ctx is done. Ticks that
// arrive while a run is active are skipped.
func Schedule(ctx context.Context, spec string, loc *time.Location, job *Job) error {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() { job.Trigger(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	slog.Info("Scheduler started", "schedule", spec, "next", c.Entries()[0].Next)

	<-ctx.Done()
	<-c.Stop().Done()
	job.Wait()
	slog.Info("Scheduler stopped")
	return nil
}
