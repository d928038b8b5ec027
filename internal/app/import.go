package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	queue "github.com/okian/bautagebuch/internal/adapters/mq/queue"
	worker "github.com/okian/bautagebuch/internal/adapters/mq/worker"
	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/dedupe"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// Import row outcomes.
const (
	rowRecorded  = "recorded"
	rowDuplicate = "duplicate"
	rowFailed    = "failed"
)

// RowError describes an imported row that could not be recorded.
type RowError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Total      int        `json:"total"`
	Recorded   int        `json:"recorded"`
	Duplicates int        `json:"duplicates"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors,omitempty"`
}

// recorderFunc adapts a function to worker.Recorder.
type recorderFunc func(ctx context.Context, e model.MeasurementEntry) error

func (f recorderFunc) Record(ctx context.Context, e model.MeasurementEntry) error { //nolint:gocritic // hugeParam
	return f(ctx, e)
}

// Import records entries through the queue and worker pool. Rows repeating
// an ID seen earlier in the same import, or already stored, count as
// duplicates; invalid rows count as failed and do not stop the import.
func (s *Service) Import(ctx context.Context, entries []model.MeasurementEntry) (ImportResult, error) {
	res := ImportResult{Total: len(entries)}
	var mu sync.Mutex

	report := func(e worker.Entry, err error) { //nolint:gocritic // hugeParam
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			res.Recorded++
			metrics.RecordImportRow(rowRecorded)
		case errors.Is(err, repository.ErrExists):
			res.Duplicates++
			metrics.RecordImportRow(rowDuplicate)
		default:
			res.Failed++
			res.Errors = append(res.Errors, RowError{ID: e.ID, Error: err.Error()})
			metrics.RecordImportRow(rowFailed)
		}
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.importQueueSize))
	pool := worker.NewPool(s.importWorkers, q,
		recorderFunc(func(ctx context.Context, e model.MeasurementEntry) error {
			_, err := s.Record(ctx, e)
			return err
		}),
		worker.WithLogger(s.logger.Named("import")),
		worker.WithReporter(report),
	)
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.logger.Info(ctx, "import started",
		logger.Int("rows", len(entries)),
		logger.Int("workers", pool.Size()),
	)
	pool.Start(ctx)

	var enqueueErr error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			enqueueErr = fmt.Errorf("import interrupted: %w", err)
			break
		}
		if e.ID == "" {
			e.ID = s.newID()
		}
		if seen.SeenAndRecord(ctx, e.ID) {
			mu.Lock()
			res.Duplicates++
			mu.Unlock()
			metrics.RecordImportRow(rowDuplicate)
			continue
		}
		if err := q.Enqueue(ctx, e); err != nil {
			seen.Unrecord(ctx, e.ID)
			enqueueErr = fmt.Errorf("import interrupted: %w", err)
			break
		}
	}

	// No deadline: workers must be done with res and the store before return.
	if err := pool.Drain(context.WithoutCancel(ctx)); err != nil && enqueueErr == nil {
		enqueueErr = fmt.Errorf("import shutdown: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	s.logger.Info(ctx, "import finished",
		logger.Int("recorded", res.Recorded),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("failed", res.Failed),
	)
	return res, enqueueErr
}
