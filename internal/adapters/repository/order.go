package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// sortActive orders entries by date desc, then CreatedAt desc, then ID asc.
func sortActive(entries []model.MeasurementEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func sortLogbook(entries []model.LogbookEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func sortWeeks(weeks []model.WeekCount) {
	sort.Slice(weeks, func(i, j int) bool {
		if weeks[i].Year != weeks[j].Year {
			return weeks[i].Year > weeks[j].Year
		}
		return weeks[i].Week > weeks[j].Week
	})
}

// matches reports whether e satisfies every filter of q.
func (q Query) matches(e model.MeasurementEntry) bool {
	if q.Location != "" && !containsFold(e.Location, q.Location) {
		return false
	}
	if q.Material != "" && !containsFold(e.MaterialName, q.Material) {
		return false
	}
	day := model.Day(e.Date)
	if !q.From.IsZero() && day.Before(model.Day(q.From)) {
		return false
	}
	if !q.To.IsZero() && day.After(model.Day(q.To)) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// observe records latency and failures of one store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordRepositoryError(op)
	}
}
