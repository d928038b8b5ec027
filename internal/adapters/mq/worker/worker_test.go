package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/bautagebuch/internal/adapters/mq/queue"
	worker "github.com/okian/bautagebuch/internal/adapters/mq/worker"
	model "github.com/okian/bautagebuch/internal/domain/model"
	logging "github.com/okian/bautagebuch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	_ = logging.InitWithWriter(io.Discard)
	goleak.VerifyTestMain(m)
}

// Mock implementations for testing.
type mockQueue struct {
	entries chan worker.Entry
}

func newMockQueue() *mockQueue {
	return &mockQueue{entries: make(chan worker.Entry, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Entry {
	return mq.entries
}

func (mq *mockQueue) Close() error {
	close(mq.entries)
	return nil
}

type mockRecorder struct {
	mu       sync.Mutex
	recorded map[string]model.MeasurementEntry
	fail     map[string]error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		recorded: make(map[string]model.MeasurementEntry),
		fail:     make(map[string]error),
	}
}

func (r *mockRecorder) Record(_ context.Context, e worker.Entry) error { //nolint:gocritic // hugeParam
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[e.ID]; ok {
		return err
	}
	r.recorded[e.ID] = e
	return nil
}

func (r *mockRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recorded)
}

type outcomes struct {
	mu   sync.Mutex
	errs map[string]error
}

func (o *outcomes) report(e worker.Entry, err error) { //nolint:gocritic // hugeParam
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[e.ID] = err
}

func (o *outcomes) get(id string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	err, ok := o.errs[id]
	return ok, err
}

// gateRecorder blocks every Record call until release is closed.
type gateRecorder struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
	*mockRecorder
}

func newGateRecorder() *gateRecorder {
	return &gateRecorder{
		release:      make(chan struct{}),
		started:      make(chan struct{}),
		mockRecorder: newMockRecorder(),
	}
}

func (r *gateRecorder) Record(ctx context.Context, e worker.Entry) error { //nolint:gocritic // hugeParam
	r.once.Do(func() { close(r.started) })
	<-r.release
	return r.mockRecorder.Record(ctx, e)
}

func entry(id string) model.MeasurementEntry {
	return model.MeasurementEntry{ID: id, Location: "Keller", MaterialName: "Beton", EmployeeName: "Anna", Quantity: 2}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		q := newMockQueue()
		recorder := newMockRecorder()
		out := &outcomes{errs: make(map[string]error)}

		w := worker.NewInMemoryWorker(q, recorder,
			worker.WithName("test-worker"),
			worker.WithReporter(out.report),
		)
		convey.So(w, convey.ShouldNotBeNil)

		convey.Convey("When it runs over a queue that gets closed", func() {
			recorder.fail["bad"] = errors.New("quantity must be positive")
			q.entries <- entry("e1")
			q.entries <- entry("bad")
			q.entries <- entry("e2")
			_ = q.Close()

			go w.Run(context.Background())
			err := w.Wait(context.Background())

			convey.Convey("Then every queued entry is processed before it stops", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(recorder.count(), convey.ShouldEqual, 2)
			})

			convey.Convey("Then the reporter sees each outcome", func() {
				ok, e1 := out.get("e1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(e1, convey.ShouldBeNil)

				ok, bad := out.get("bad")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(bad, convey.ShouldNotBeNil)
				convey.So(bad.Error(), convey.ShouldContainSubstring, "record entry bad")
			})
		})

		convey.Convey("When its context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
			defer waitCancel()
			err := w.Wait(waitCtx)

			convey.Convey("Then it stops", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When waiting on a worker that never ran", func() {
			waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer waitCancel()
			err := w.Wait(waitCtx)

			convey.Convey("Then the wait times out", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "test-worker")
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a small in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(5))
		recorder := newMockRecorder()
		out := &outcomes{errs: make(map[string]error)}

		pool := worker.NewPool(4, q, recorder, worker.WithReporter(out.report))
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When more entries than the queue holds are enqueued", func() {
			pool.Start(ctx)
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, entry(fmt.Sprintf("e%02d", i))), convey.ShouldBeNil)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then shutdown drains them all", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(recorder.count(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose recorder is held back", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		recorder := newGateRecorder()
		out := &outcomes{errs: make(map[string]error)}

		pool := worker.NewPool(2, q, recorder, worker.WithReporter(out.report))
		pool.Start(ctx)
		for i := 0; i < 6; i++ {
			convey.So(q.Enqueue(ctx, entry(fmt.Sprintf("e%d", i))), convey.ShouldBeNil)
		}
		<-recorder.started

		convey.Convey("When draining", func() {
			done := make(chan error, 1)
			go func() { done <- pool.Drain(ctx) }()

			var (
				early bool
				err   error
			)
			select {
			case err = <-done:
				early = true
			case <-time.After(50 * time.Millisecond):
			}
			close(recorder.release)
			if !early {
				err = <-done
			}

			convey.Convey("Then it returns only after every entry was reported", func() {
				convey.So(early, convey.ShouldBeFalse)
				convey.So(err, convey.ShouldBeNil)
				convey.So(recorder.count(), convey.ShouldEqual, 6)
				for i := 0; i < 6; i++ {
					ok, _ := out.get(fmt.Sprintf("e%d", i))
					convey.So(ok, convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When draining with a context that ends first", func() {
			drainCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := pool.Drain(drainCtx)
			close(recorder.release)
			convey.So(pool.Drain(ctx), convey.ShouldBeNil)

			convey.Convey("Then it reports the deadline", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool without an explicit size", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockRecorder())

		convey.Convey("Then it sizes itself by CPU count", func() {
			convey.So(pool.Size(), convey.ShouldEqual, runtime.NumCPU())
		})
	})
}
