package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// MemoryStore is a mutex-guarded in-memory Store. Deleted entries are kept
// with their deletion mark so that IDs are never reused.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.MeasurementEntry
	logbook map[string]model.LogbookEntry // by measurement ID
	closed  bool
	cfg     settings

	categories map[string]model.CableCategory
	cableTypes map[cableKey]model.CableType
	materials  map[string]model.Material
}

type cableKey struct{ category, name string }

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]model.MeasurementEntry),
		logbook:    make(map[string]model.LogbookEntry),
		cfg:        newSettings(opts),
		categories: make(map[string]model.CableCategory),
		cableTypes: make(map[cableKey]model.CableType),
		materials:  make(map[string]model.Material),
	}
}

func (s *MemoryStore) Add(_ context.Context, e model.MeasurementEntry, le model.LogbookEntry) (err error) {
	start := time.Now()
	defer func() { observe("add", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.entries[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, e.ID)
	}
	s.entries[e.ID] = e
	le.MeasurementID = e.ID
	s.logbook[e.ID] = le
	return nil
}

func (s *MemoryStore) Update(_ context.Context, e model.MeasurementEntry, le model.LogbookEntry) (err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cur, ok := s.entries[e.ID]
	if !ok || cur.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, e.ID)
	}
	e.CreatedAt = cur.CreatedAt
	e.Deleted, e.DeletedAt = false, nil
	s.entries[e.ID] = e
	le.MeasurementID = e.ID
	s.logbook[e.ID] = le
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.MeasurementEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.MeasurementEntry{}, ErrClosed
	}
	e, ok := s.entries[id]
	if !ok || e.Deleted {
		return model.MeasurementEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (s *MemoryStore) Active(ctx context.Context) ([]model.MeasurementEntry, error) {
	return s.Search(ctx, Query{})
}

func (s *MemoryStore) SoftDelete(_ context.Context, id string, at time.Time) (err error) {
	start := time.Now()
	defer func() { observe("soft_delete", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok || e.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.Deleted = true
	e.DeletedAt = &at
	s.entries[id] = e
	delete(s.logbook, id)
	return nil
}

func (s *MemoryStore) MarkChecked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok || e.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.DuplicateChecked = true
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Search(_ context.Context, q Query) ([]model.MeasurementEntry, error) {
	defer observe("search", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.MeasurementEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Deleted && q.matches(e) {
			out = append(out, e)
		}
	}
	sortActive(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Logbook(_ context.Context, year, week int) ([]model.LogbookEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []model.LogbookEntry
	for _, le := range s.logbook {
		if le.Year == year && le.Week == week {
			out = append(out, le)
		}
	}
	sortLogbook(out)
	return out, nil
}

func (s *MemoryStore) Weeks(_ context.Context) ([]model.WeekCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	counts := make(map[[2]int]int)
	for _, le := range s.logbook {
		counts[[2]int{le.Year, le.Week}]++
	}
	out := make([]model.WeekCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.WeekCount{Year: k[0], Week: k[1], Count: n})
	}
	sortWeeks(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	n := 0
	for _, e := range s.entries {
		if !e.Deleted {
			n++
		}
	}
	return n
}

func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
