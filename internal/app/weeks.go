package service

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/logbook"
	"github.com/okian/bautagebuch/internal/domain/model"
)

const maxISOWeek = 53

// Weeks lists the calendar weeks that have logbook lines, newest first.
func (s *Service) Weeks(ctx context.Context) ([]model.WeekCount, error) {
	weeks, err := s.store.Weeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	return weeks, nil
}

// WeeklyReport builds the logbook report of one ISO week.
func (s *Service) WeeklyReport(ctx context.Context, year, week int) (logbook.Report, error) {
	if week < 1 || week > maxISOWeek {
		return logbook.Report{}, fmt.Errorf("%w: %d", ErrInvalidWeek, week)
	}
	lines, err := s.store.Logbook(ctx, year, week)
	if err != nil {
		return logbook.Report{}, fmt.Errorf("load logbook: %w", err)
	}
	if len(lines) == 0 {
		return logbook.Report{}, fmt.Errorf("%w: week %d/%d", ErrNoEntries, week, year)
	}

	measurements := make(map[string]model.MeasurementEntry, len(lines))
	for _, le := range lines {
		m, err := s.store.Get(ctx, le.MeasurementID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return logbook.Report{}, fmt.Errorf("load measurement: %w", err)
		}
		measurements[m.ID] = m
	}
	return logbook.BuildReport(year, week, lines, measurements), nil
}
