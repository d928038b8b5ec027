package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// Report is the result of one duplicate detection pass.
type Report struct {
	Groups    []duplicate.Group `json:"groups"`
	Summary   duplicate.Summary `json:"summary"`
	Scanned   int               `json:"scanned"`
	Threshold float64           `json:"threshold"`
}

// Duplicates scans all active entries that were not confirmed as distinct and
// returns the duplicate groups, highest risk first.
func (s *Service) Duplicates(ctx context.Context) (Report, error) {
	start := time.Now()

	active, err := s.store.Active(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load entries: %w", err)
	}
	unchecked := make([]model.MeasurementEntry, 0, len(active))
	for _, e := range active {
		if !e.DuplicateChecked {
			unchecked = append(unchecked, e)
		}
	}

	groups := s.finder.Find(unchecked)
	duplicate.SortByRisk(groups)
	summary := duplicate.Summarize(groups)

	metrics.RecordDuplicateScan(duplicate.Comparisons(len(unchecked)), float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateDuplicateGroups(summary.High, summary.Medium, summary.Low)
	metrics.UpdateActiveEntries(len(active))

	s.logger.Info(ctx, "duplicate scan finished",
		logger.Int("entries", len(unchecked)),
		logger.Int("groups", summary.Total),
		logger.Int("high", summary.High),
		logger.Duration("took", time.Since(start)),
	)
	return Report{
		Groups:    groups,
		Summary:   summary,
		Scanned:   len(unchecked),
		Threshold: s.finder.Threshold(),
	}, nil
}

// DeleteDuplicate soft-deletes an entry together with its logbook line.
func (s *Service) DeleteDuplicate(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id, s.now()); err != nil {
		return fmt.Errorf("delete duplicate: %w", err)
	}
	metrics.RecordEntryDeleted()
	s.logger.Info(ctx, "duplicate entry deleted", logger.String("id", id))
	return nil
}

// ConfirmNotDuplicate marks an entry as reviewed so later scans skip it.
func (s *Service) ConfirmNotDuplicate(ctx context.Context, id string) error {
	if err := s.store.MarkChecked(ctx, id); err != nil {
		return fmt.Errorf("confirm entry: %w", err)
	}
	metrics.RecordEntryConfirmed()
	s.logger.Info(ctx, "entry confirmed as not duplicate", logger.String("id", id))
	return nil
}
