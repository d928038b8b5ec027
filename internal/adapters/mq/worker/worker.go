package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Entry is what workers read off the queue.
type Entry = model.MeasurementEntry

// Recorder stores one entry.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Reporter receives the outcome of each processed entry. It is called from
// worker goroutines and must be safe for concurrent use.
type Reporter func(e Entry, err error)

// Queue defines how workers receive entries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Entry
}

// Worker processes entries until its queue drains.
type Worker interface {
	// Run starts the worker loop until the queue closes or ctx is canceled.
	Run(ctx context.Context)
	// Wait blocks until Run returned or ctx ended.
	Wait(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	report   Reporter
	name     string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		recorder: recorder,
		report:   func(Entry, error) {},
		name:     "worker",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop. Entries still queued when the queue closes are
// processed before Run returns.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	entries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			err := w.process(ctx, e)
			w.report(e, err)
		}
	}
}

// Wait blocks until the worker finished or ctx ended.
func (w *InMemoryWorker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s: %w", w.name, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: entries are passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.recorder.Record(ctx, e); err != nil {
		metrics.RecordErrorByComponent("worker", "record_failed")
		w.logger.Warn(ctx, "recording entry failed",
			logger.String("entry_id", e.ID),
			logger.Error(err),
		)
		return fmt.Errorf("record entry %s: %w", e.ID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. Options are applied to every worker; each
// worker gets its own name.
func NewPool(workerCount int, queue Queue, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, recorder, workerOpts...)
	}
	pool.logger = pool.workers[0].logger

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and waits up to poolShutdownTimeout for the
// workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	return p.Drain(shutdownCtx)
}

// Drain closes the queue and waits until every worker returned or ctx ended.
// Unlike Shutdown it sets no deadline of its own.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var firstErr error
	for i, w := range p.workers {
		if err := w.Wait(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		metrics.UpdateWorkerActiveCount(0)
	}
	return firstErr
}
