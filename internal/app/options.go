package service

import (
	"time"

	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThreshold sets the similarity threshold of duplicate detection.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		s.finder = duplicate.NewFinder(duplicate.WithThreshold(threshold))
	}
}

// WithCheckWindow sets how many days around the entry date the live check searches.
func WithCheckWindow(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.checkWindowDays = days
		}
	}
}

// WithCheckLimit caps the number of live check results.
func WithCheckLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.checkLimit = limit
		}
	}
}

// WithImportWorkers sets the number of import worker goroutines.
func WithImportWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.importWorkers = count
		}
	}
}

// WithImportQueueSize sets the capacity of the import queue.
func WithImportQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.importQueueSize = size
		}
	}
}

// WithDedupeSize bounds the set of IDs remembered during one import.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
