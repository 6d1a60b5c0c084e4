// Package async runs pipeline executions on a bounded worker pool so the
// request-handling layer stays responsive while stages grind through
// rasterization, OCR and rendering.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/intake"
	"github.com/joseph-ayodele/scandocx/internal/pipeline"
)

// JobRunner executes one job to a terminal state. *pipeline.Orchestrator is
// the production implementation.
type JobRunner interface {
	Run(ctx context.Context, jobID string, up intake.Upload) (*pipeline.FinalResult, error)
}

// Result is the outcome of one job execution.
type Result struct {
	Final *pipeline.FinalResult
	Err   error
}

type task struct {
	jobID  string
	upload intake.Upload
	done   chan Result
}

// PipelineQueue executes Run calls on a fixed set of workers. Each
// submission gets a result channel the caller can wait on, so the HTTP
// upload handler still responds synchronously while other requests are
// never blocked behind stage work.
type PipelineQueue struct {
	orch    JobRunner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PipelineQueue)

func WithWorkers(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *PipelineQueue) {
		if n > 0 {
			q.ch = make(chan task, n)
		}
	}
}
func WithJobTimeout(d time.Duration) Option {
	return func(q *PipelineQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewPipelineQueue(orch JobRunner, logger *slog.Logger, opts ...Option) *PipelineQueue {
	q := &PipelineQueue{
		orch:    orch,
		logger:  logger,
		workers: 4,
		timeout: 10 * time.Minute,
		ch:      make(chan task, 256),
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PipelineQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for t := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					final, err := q.orch.Run(ctx, t.jobID, t.upload)
					cancel()

					if err != nil {
						q.logger.Error("job run failed", "worker_id", workerID, "job_id", t.jobID, "error", err)
					} else {
						q.logger.Info("job run succeeded", "worker_id", workerID, "job_id", t.jobID)
					}
					t.done <- Result{Final: final, Err: err}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Submit enqueues one job run and returns a channel that receives exactly
// one Result. Submissions after Shutdown fail immediately.
func (q *PipelineQueue) Submit(ctx context.Context, jobID string, upload intake.Upload) (<-chan Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", jobID)
		return nil, common.NewAppError(common.CodeConflict, "queue is shutting down", nil)
	}

	t := task{jobID: jobID, upload: upload, done: make(chan Result, 1)}
	select {
	case q.ch <- t:
		q.logger.Info("queued job for processing", "job_id", jobID)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", jobID)
		select {
		case q.ch <- t:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return t.done, nil
}

// Shutdown stops intake and drains in-flight work, bounded by ctx.
func (q *PipelineQueue) Shutdown(ctx context.Context) {
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
