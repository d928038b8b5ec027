package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

func (s *MemoryStore) AddCategory(_ context.Context, c model.CableCategory) (err error) {
	start := time.Now()
	defer func() { observe("add_category", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.categories[c.Name]; ok {
		return fmt.Errorf("%w: cable category %s", ErrExists, c.Name)
	}
	s.categories[c.Name] = c
	return nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, c model.CableCategory) (err error) {
	start := time.Now()
	defer func() { observe("update_category", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cur, ok := s.categories[c.Name]
	if !ok {
		return fmt.Errorf("%w: cable category %s", ErrNotFound, c.Name)
	}
	c.CreatedAt = cur.CreatedAt
	s.categories[c.Name] = c
	return nil
}

func (s *MemoryStore) Category(_ context.Context, name string) (model.CableCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.CableCategory{}, ErrClosed
	}
	c, ok := s.categories[name]
	if !ok {
		return model.CableCategory{}, fmt.Errorf("%w: cable category %s", ErrNotFound, name)
	}
	return c, nil
}

func (s *MemoryStore) Categories(_ context.Context, activeOnly bool) ([]model.CableCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.CableCategory, 0, len(s.categories))
	for _, c := range s.categories {
		if !activeOnly || c.Active {
			out = append(out, c)
		}
	}
	sortCategories(out)
	return out, nil
}

func (s *MemoryStore) AddCableType(_ context.Context, t model.CableType) (err error) {
	start := time.Now()
	defer func() { observe("add_cable_type", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.categories[t.Category]; !ok {
		return fmt.Errorf("%w: cable category %s", ErrNotFound, t.Category)
	}
	key := cableKey{t.Category, t.Name}
	if _, ok := s.cableTypes[key]; ok {
		return fmt.Errorf("%w: cable type %s in %s", ErrExists, t.Name, t.Category)
	}
	s.cableTypes[key] = t
	return nil
}

func (s *MemoryStore) UpdateCableType(_ context.Context, t model.CableType) (err error) {
	start := time.Now()
	defer func() { observe("update_cable_type", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	key := cableKey{t.Category, t.Name}
	cur, ok := s.cableTypes[key]
	if !ok {
		return fmt.Errorf("%w: cable type %s in %s", ErrNotFound, t.Name, t.Category)
	}
	t.CreatedAt = cur.CreatedAt
	s.cableTypes[key] = t
	return nil
}

func (s *MemoryStore) CableType(_ context.Context, category, name string) (model.CableType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.CableType{}, ErrClosed
	}
	t, ok := s.cableTypes[cableKey{category, name}]
	if !ok {
		return model.CableType{}, fmt.Errorf("%w: cable type %s in %s", ErrNotFound, name, category)
	}
	return t, nil
}

func (s *MemoryStore) CableTypes(_ context.Context, q CatalogQuery) ([]model.CableType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := []model.CableType{}
	for _, t := range s.cableTypes {
		if !q.matches(t.Category, t.Name) {
			continue
		}
		if q.ActiveOnly && (!t.Active || !s.categories[t.Category].Active) {
			continue
		}
		out = append(out, t)
	}
	sortCableTypes(out)
	return out, nil
}

func (s *MemoryStore) AddMaterial(_ context.Context, m model.Material) (err error) {
	start := time.Now()
	defer func() { observe("add_material", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.materials[m.Name]; ok {
		return fmt.Errorf("%w: material %s", ErrExists, m.Name)
	}
	s.materials[m.Name] = m
	return nil
}

func (s *MemoryStore) UpdateMaterial(_ context.Context, m model.Material) (err error) {
	start := time.Now()
	defer func() { observe("update_material", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cur, ok := s.materials[m.Name]
	if !ok {
		return fmt.Errorf("%w: material %s", ErrNotFound, m.Name)
	}
	m.CreatedAt = cur.CreatedAt
	s.materials[m.Name] = m
	return nil
}

func (s *MemoryStore) Material(_ context.Context, name string) (model.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Material{}, ErrClosed
	}
	m, ok := s.materials[name]
	if !ok {
		return model.Material{}, fmt.Errorf("%w: material %s", ErrNotFound, name)
	}
	return m, nil
}

func (s *MemoryStore) Materials(_ context.Context, q CatalogQuery) ([]model.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := []model.Material{}
	for _, m := range s.materials {
		if q.matches(m.Category, m.Name) && (!q.ActiveOnly || m.Active) {
			out = append(out, m)
		}
	}
	sortMaterials(out)
	return out, nil
}

func (s *MemoryStore) DeleteMaterial(_ context.Context, name string) (err error) {
	start := time.Now()
	defer func() { observe("delete_material", start, err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.materials[name]; !ok {
		return fmt.Errorf("%w: material %s", ErrNotFound, name)
	}
	delete(s.materials, name)
	return nil
}
