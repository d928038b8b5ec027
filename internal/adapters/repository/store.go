// Package repository stores measurement entries and their logbook lines.
package repository

import (
	"context"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// Query filters entries for search. Zero values disable a filter.
type Query struct {
	// Location and Material match case-insensitive substrings.
	Location string
	Material string
	// From and To bound the entry date by calendar day, inclusive.
	From time.Time
	To   time.Time
	// Limit caps the result; zero or negative means unlimited.
	Limit int
}

// Store provides read/write access to measurement entries and the catalog.
type Store interface {
	Catalog

	// Add stores a new entry together with its logbook line.
	Add(ctx context.Context, e model.MeasurementEntry, le model.LogbookEntry) error
	// Update replaces an existing entry and its logbook line.
	Update(ctx context.Context, e model.MeasurementEntry, le model.LogbookEntry) error
	// Get returns a non-deleted entry or ErrNotFound.
	Get(ctx context.Context, id string) (model.MeasurementEntry, error)
	// Active returns all non-deleted entries, newest date first.
	Active(ctx context.Context) ([]model.MeasurementEntry, error)
	// SoftDelete marks an entry deleted at the given time and drops its logbook line.
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// MarkChecked records that an entry was reviewed and is not a duplicate.
	MarkChecked(ctx context.Context, id string) error
	// Search returns non-deleted entries matching q in Active order.
	Search(ctx context.Context, q Query) ([]model.MeasurementEntry, error)
	// Logbook returns the logbook lines of one ISO week ordered by date.
	Logbook(ctx context.Context, year, week int) ([]model.LogbookEntry, error)
	// Weeks lists weeks that have logbook lines, newest first.
	Weeks(ctx context.Context) ([]model.WeekCount, error)
	// Count returns the number of non-deleted entries, or 0 once closed.
	Count(ctx context.Context) int
	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error
	// Close releases resources. Further calls return ErrClosed.
	Close() error
}
