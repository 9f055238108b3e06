package docmerge

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Progress is a progress report of a background run.
type Progress struct {
	Done  int
	Total int
}

// Run is a batch generation running in the background.
type Run struct {
	group    *errgroup.Group
	cancel   context.CancelFunc
	progress chan Progress
	result   *Result
}

// Start runs Generate on a background goroutine. The job's own Progress
// callback, if any, is still called from that goroutine.
func Start(ctx context.Context, job Job) *Run {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	run := &Run{
		group:    group,
		cancel:   cancel,
		progress: make(chan Progress, 1),
	}

	callback := job.Progress
	job.Progress = func(done, total int) {
		if callback != nil {
			callback(done, total)
		}
		run.publish(Progress{Done: done, Total: total})
	}

	group.Go(func() error {
		defer close(run.progress)
		result, err := Generate(gctx, job)
		run.result = result
		return err
	})

	return run
}

// Progress returns a channel carrying the latest progress report. Reports
// are dropped when the reader falls behind; the channel is closed when the
// run ends.
func (r *Run) Progress() <-chan Progress {
	return r.progress
}

// Cancel asks the run to stop after the current row.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run ends and returns its result.
func (r *Run) Wait() (*Result, error) {
	err := r.group.Wait()
	r.cancel()
	return r.result, err
}

// publish replaces any unread report with p.
func (r *Run) publish(p Progress) {
	for {
		select {
		case r.progress <- p:
			return
		default:
		}
		select {
		case <-r.progress:
		default:
		}
	}
}
