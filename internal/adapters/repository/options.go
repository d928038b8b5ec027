package repository

import (
	"context"
	"time"

	"github.com/okian/bautagebuch/pkg/logger"
)

const defaultBusyTimeout = 5 * time.Second

type settings struct {
	log         logger.Logger
	busyTimeout time.Duration
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithLogger sets the logger used by the store. Stores log nothing without one.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) info(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Info(ctx, msg, fields...)
	}
}

func (s settings) warn(ctx context.Context, msg string, fields ...logger.Field) {
	if s.log != nil {
		s.log.Warn(ctx, msg, fields...)
	}
}
