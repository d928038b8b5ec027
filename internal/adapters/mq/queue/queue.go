// Package queue carries measurement entries from an import source to the
// import workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Entry is the payload flowing through the queue.
type Entry = model.MeasurementEntry

// Queue provides enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue blocks until e is queued, the context ends or the queue closes.
	Enqueue(ctx context.Context, e Entry) error
	// TryEnqueue queues e only if there is room right now.
	TryEnqueue(ctx context.Context, e Entry) bool
	// Dequeue returns a channel that is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Entry
	// Len returns the current number of queued entries.
	Len(ctx context.Context) int
	// Close stops accepting entries. Queued entries are still delivered.
	Close() error
	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue holds the read lock while blocked so Close cannot close the channel
// under a pending send; Close signals done first to release such senders.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam: entries are passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.rejected("closed")
		return ErrClosed
	}

	select {
	case q.entries <- e:
		q.accepted()
		return nil
	case <-ctx.Done():
		q.rejected("context_cancelled")
		return ctx.Err()
	case <-q.done:
		q.rejected("closed")
		return ErrClosed
	}
}

func (q *InMemoryQueue) TryEnqueue(_ context.Context, e Entry) bool { //nolint:gocritic // hugeParam: see Enqueue
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.rejected("closed")
		return false
	}

	select {
	case q.entries <- e:
		q.accepted()
		return true
	default:
		q.rejected("queue_full")
		return false
	}
}

func (q *InMemoryQueue) accepted() {
	metrics.RecordQueueEnqueue()
	q.updateGauges()
}

func (*InMemoryQueue) rejected(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.entries)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive entries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for e := range q.entries {
			select {
			case out <- e:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return len(q.entries)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	// Release blocked senders before taking the write lock.
	q.once.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
