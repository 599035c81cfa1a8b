package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tolu-adebayo/finsight/internal/common"
)

// Processor is what the queue drives; satisfied by the orchestrator.
type Processor interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

// DispatchQueue runs the pipeline off the upload path: a bounded channel
// feeding a fixed worker pool, one background task per job with its own
// timeout context. Parked and failed jobs surface through the job record,
// not through the queue.
type DispatchQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*DispatchQueue)

func WithWorkers(n int) Option {
	return func(q *DispatchQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *DispatchQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *DispatchQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewDispatchQueue(proc Processor, logger *slog.Logger, opts ...Option) *DispatchQueue {
	q := &DispatchQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *DispatchQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					if job.TraceID != "" {
						ctx = common.WithRequestID(ctx, job.TraceID)
					}
					err := q.proc.Process(ctx, job.JobID)
					cancel()

					if err != nil {
						q.logger.Error("pipeline run failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
					} else {
						q.logger.Info("pipeline run finished", "worker_id", workerID, "job_id", job.JobID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *DispatchQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.JobID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued job for processing", "job_id", job.JobID)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.JobID)
		q.ch <- job
	}
	return nil
}

func (q *DispatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
