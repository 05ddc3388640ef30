package analytics

import (
	"context"
	"log/slog"

	"unify/internal/analytics/metrics"
)

// Job is one unit of background sync work.
type Job func(ctx context.Context)

// Dispatcher runs sync jobs on a single background worker fed by a bounded
// channel. Dispatch never blocks the caller: when the queue is full the job
// is dropped and counted, because a slow downstream sink may only ever
// delay the background sync, never the primary write. Cancellation of
// in-flight jobs is intentionally not supported; stopping the worker simply
// stops picking up new ones.
type Dispatcher struct {
	jobs    chan Job
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(queueSize int, log *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		jobs:    make(chan Job, queueSize),
		log:     log,
		metrics: m,
	}
}

// Dispatch enqueues a job without blocking. A full queue drops the job.
func (d *Dispatcher) Dispatch(job Job) {
	select {
	case d.jobs <- job:
	default:
		d.metrics.RecordDrop()
		d.log.Warn("sync queue full, job dropped")
	}
}

// Run consumes jobs until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-d.jobs:
			job(ctx)
		}
	}
}

// Len reports the number of queued jobs. Used by tests to drain
// deterministically.
func (d *Dispatcher) Len() int {
	return len(d.jobs)
}
