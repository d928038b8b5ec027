// Package service implements the logbook operations on top of the entry
// repository: recording measurements, finding and resolving duplicates,
// weekly reports and bulk import.
package service

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
)

// Default configuration.
const (
	defaultCheckWindowDays = 1
	defaultCheckLimit      = 5
	defaultImportQueueSize = 1_000
	defaultDedupeSize      = 100_000
)

// Service implements the Bautagebuch operations.
type Service struct {
	store  repository.Store
	finder *duplicate.Finder

	checkWindowDays int
	checkLimit      int
	importWorkers   int
	importQueueSize int
	dedupeSize      int

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// New constructs a Service over store. The store is owned by the service
// afterwards and released by Close.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		finder:          duplicate.NewFinder(),
		checkWindowDays: defaultCheckWindowDays,
		checkLimit:      defaultCheckLimit,
		importWorkers:   runtime.NumCPU(),
		importQueueSize: defaultImportQueueSize,
		dedupeSize:      defaultDedupeSize,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Threshold returns the similarity threshold used for duplicate detection.
func (s *Service) Threshold() float64 {
	return s.finder.Threshold()
}

// List returns entries matching q, newest first.
func (s *Service) List(ctx context.Context, q repository.Query) ([]model.MeasurementEntry, error) {
	return s.store.Search(ctx, q)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	return map[string]any{
		"entries":           s.store.Count(ctx),
		"threshold":         s.finder.Threshold(),
		"check_window_days": s.checkWindowDays,
		"check_limit":       s.checkLimit,
		"import_workers":    s.importWorkers,
		"import_queue_size": s.importQueueSize,
		"dedupe_size":       s.dedupeSize,
	}
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Ping reports whether the store is usable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
