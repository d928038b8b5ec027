package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/internal/domain/logbook"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

const minLocationLen = 2

// RecordResult is the outcome of recording one measurement.
type RecordResult struct {
	Entry   model.MeasurementEntry `json:"entry"`
	Logbook model.LogbookEntry     `json:"logbook"`
	// Warnings lists existing entries of the same day and material at a
	// matching location. They are recorded anyway.
	Warnings []duplicate.Match `json:"warnings,omitempty"`
}

// Record validates and stores a new measurement together with its logbook line.
// A missing ID is generated and a missing unit is taken from the active
// catalog material of the same name.
func (s *Service) Record(ctx context.Context, e model.MeasurementEntry) (RecordResult, error) {
	e = normalize(e)
	if err := validate(e); err != nil {
		metrics.RecordErrorByComponent("service", "invalid_entry")
		return RecordResult{}, err
	}
	e, err := s.unitFromCatalog(ctx, e)
	if err != nil {
		return RecordResult{}, fmt.Errorf("record entry: %w", err)
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	now := s.now()
	e.CreatedAt = now
	e.DuplicateChecked, e.Deleted, e.DeletedAt = false, false, nil

	warnings, err := s.sameDayMatches(ctx, e)
	if err != nil {
		return RecordResult{}, err
	}

	le := logbook.NewEntry(e, now)
	if err := s.store.Add(ctx, e, le); err != nil {
		return RecordResult{}, fmt.Errorf("record entry: %w", err)
	}
	metrics.RecordEntryRecorded()

	fields := []logger.Field{
		logger.String("id", e.ID),
		logger.String("material", e.MaterialName),
		logger.String("location", e.Location),
	}
	if len(warnings) > 0 {
		s.logger.Warn(ctx, "entry recorded with similar entries on the same day",
			append(fields, logger.Int("similar", len(warnings)))...)
	} else {
		s.logger.Info(ctx, "entry recorded", fields...)
	}
	return RecordResult{Entry: e, Logbook: le, Warnings: warnings}, nil
}

// Update revalidates an existing entry and regenerates its logbook line. The
// duplicate review flag is cleared because the content changed.
func (s *Service) Update(ctx context.Context, e model.MeasurementEntry) (RecordResult, error) {
	e = normalize(e)
	if err := validate(e); err != nil {
		metrics.RecordErrorByComponent("service", "invalid_entry")
		return RecordResult{}, err
	}
	cur, err := s.store.Get(ctx, e.ID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("update entry: %w", err)
	}
	if e, err = s.unitFromCatalog(ctx, e); err != nil {
		return RecordResult{}, fmt.Errorf("update entry: %w", err)
	}
	e.CreatedAt = cur.CreatedAt
	e.DuplicateChecked, e.Deleted, e.DeletedAt = false, false, nil

	le := logbook.NewEntry(e, s.now())
	if err := s.store.Update(ctx, e, le); err != nil {
		return RecordResult{}, fmt.Errorf("update entry: %w", err)
	}
	s.logger.Info(ctx, "entry updated", logger.String("id", e.ID))
	return RecordResult{Entry: e, Logbook: le}, nil
}

// Check is the live duplicate check for an entry that is being typed in. It
// searches entries whose location and material contain the given ones within
// the check window and ranks them by similarity.
func (s *Service) Check(ctx context.Context, candidate model.MeasurementEntry) ([]duplicate.Match, error) {
	candidate = normalize(candidate)
	if candidate.MaterialName == "" || candidate.Location == "" || candidate.Date.IsZero() {
		return nil, fmt.Errorf("%w: check needs material, location and date", ErrInvalidEntry)
	}

	window := time.Duration(s.checkWindowDays) * 24 * time.Hour
	hits, err := s.store.Search(ctx, repository.Query{
		Location: candidate.Location,
		Material: candidate.MaterialName,
		From:     candidate.Date.Add(-window),
		To:       candidate.Date.Add(window),
		Limit:    s.checkLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("live check: %w", err)
	}

	matches := duplicate.Rank(candidate, hits)
	metrics.RecordLiveCheck(len(matches))
	s.logger.Debug(ctx, "live check", logger.Int("matches", len(matches)))
	return matches, nil
}

// sameDayMatches finds entries of the same day and material whose location
// contains the new one.
func (s *Service) sameDayMatches(ctx context.Context, e model.MeasurementEntry) ([]duplicate.Match, error) {
	hits, err := s.store.Search(ctx, repository.Query{
		Location: e.Location,
		Material: e.MaterialName,
		From:     e.Date,
		To:       e.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("pre-save check: %w", err)
	}
	same := hits[:0]
	for _, h := range hits {
		if strings.EqualFold(h.MaterialName, e.MaterialName) {
			same = append(same, h)
		}
	}
	return duplicate.Rank(e, same), nil
}

func normalize(e model.MeasurementEntry) model.MeasurementEntry {
	e.ID = strings.TrimSpace(e.ID)
	e.Location = strings.TrimSpace(e.Location)
	e.RoomNumber = strings.TrimSpace(e.RoomNumber)
	e.MaterialName = strings.TrimSpace(e.MaterialName)
	e.Unit = strings.TrimSpace(e.Unit)
	e.EmployeeName = strings.TrimSpace(e.EmployeeName)
	e.Remarks = strings.TrimSpace(e.Remarks)
	if !e.Date.IsZero() {
		e.Date = model.Day(e.Date)
	}
	return e
}

func validate(e model.MeasurementEntry) error {
	var problems []string
	if e.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if e.MaterialName == "" {
		problems = append(problems, "material is required")
	}
	if len([]rune(e.Location)) < minLocationLen {
		problems = append(problems, fmt.Sprintf("location needs at least %d characters", minLocationLen))
	}
	switch {
	case math.IsInf(e.Quantity, 0):
		problems = append(problems, "quantity must be finite")
	case !(e.Quantity > 0):
		problems = append(problems, "quantity must be positive")
	}
	if e.EmployeeName == "" {
		problems = append(problems, "employee is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(problems, "; "))
	}
	return nil
}
