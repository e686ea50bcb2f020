package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// Job is one periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; defaults to one minute
	Run      func(ctx context.Context) error
}

// StartBackgroundWorker runs job on a ticker until stopCh closes. A run that
// fails is logged and the next tick tries again; missed ticks are simply
// skipped, so jobs must tolerate arbitrary gaps.
// PRE: job.Interval > 0, job.Run is non-nil
// POST: A goroutine is running; it exits when stopCh closes
func StartBackgroundWorker(job Job, stopCh <-chan struct{}) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	go func() {
		ticker := time.NewTicker(job.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				if err := job.Run(ctx); err != nil {
					slog.Error("background_job_failed", "job", job.Name, "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("background_worker_stopped", "job", job.Name)
				return
			}
		}
	}()
}

// SweepJob wraps ExecuteSweep for StartBackgroundWorker.
func SweepJob(deps EngineDeps, interval time.Duration) Job {
	return Job{
		Name:     "session_sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			res, err := ExecuteSweep(ctx, deps)
			if err == nil && len(res.Archived) > 0 {
				slog.Info("session_event", "event", "sweep_archived", "slots", len(res.Archived))
			}
			return err
		},
	}
}

// SnapshotJob wraps ExecuteSampleSnapshots for StartBackgroundWorker.
func SnapshotJob(deps SampleSnapshotsDeps, interval time.Duration) Job {
	return Job{
		Name:     "daily_snapshot",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := ExecuteSampleSnapshots(ctx, deps)
			return err
		},
	}
}
