package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
	"github.com/okian/bautagebuch/pkg/metrics"
)

// Catalog field limits.
const (
	minItemName      = 2
	maxCategoryName  = 100
	maxItemName      = 255
	maxDescription   = 500
	maxTechnicalData = 1_000
	maxUnit          = 50
	minSearchLen     = 2
)

// Catalog item kinds, used in metrics and messages.
const (
	kindCategory  = "cable_category"
	kindCableType = "cable_type"
	kindMaterial  = "material"
)

// CatalogPatch changes selected fields of a catalog item. Nil fields keep
// their value; fields that do not exist on the item are ignored.
type CatalogPatch struct {
	Description   *string
	TechnicalData *string // cable types
	Category      *string // materials
	Unit          *string // materials
	Active        *bool
	SortOrder     *int
}

// CatalogImportResult summarizes a catalog bulk import.
type CatalogImportResult struct {
	Total    int        `json:"total"`
	Added    int        `json:"added"`
	Existing int        `json:"existing"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// AddCategory stores a new cable category.
func (s *Service) AddCategory(ctx context.Context, c model.CableCategory) (model.CableCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if err := checkCategory(c); err != nil {
		return model.CableCategory{}, err
	}
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	if err := s.store.AddCategory(ctx, c); err != nil {
		return model.CableCategory{}, fmt.Errorf("add cable category: %w", err)
	}
	s.catalogChanged(ctx, kindCategory, "add", c.Name)
	return c, nil
}

// UpdateCategory applies p to the named cable category.
func (s *Service) UpdateCategory(ctx context.Context, name string, p CatalogPatch) (model.CableCategory, error) {
	c, err := s.store.Category(ctx, strings.TrimSpace(name))
	if err != nil {
		return model.CableCategory{}, fmt.Errorf("update cable category: %w", err)
	}
	p.apply(&c.Description, &c.Active, &c.SortOrder)
	if err := checkCategory(c); err != nil {
		return model.CableCategory{}, err
	}
	c.UpdatedAt = s.now()
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return model.CableCategory{}, fmt.Errorf("update cable category: %w", err)
	}
	s.catalogChanged(ctx, kindCategory, "update", c.Name)
	return c, nil
}

// Categories lists cable categories by sort order and name.
func (s *Service) Categories(ctx context.Context, activeOnly bool) ([]model.CableCategory, error) {
	return s.store.Categories(ctx, activeOnly)
}

// AddCableType stores a new cable type in an existing category.
func (s *Service) AddCableType(ctx context.Context, t model.CableType) (model.CableType, error) {
	t = normalizeCableType(t)
	if err := checkCableType(t); err != nil {
		return model.CableType{}, err
	}
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	if err := s.store.AddCableType(ctx, t); err != nil {
		return model.CableType{}, fmt.Errorf("add cable type: %w", err)
	}
	s.catalogChanged(ctx, kindCableType, "add", t.Category+"/"+t.Name)
	return t, nil
}

// QuickAddCableType adds an active cable type and creates its category
// first when it does not exist yet.
func (s *Service) QuickAddCableType(ctx context.Context, category, name string) (model.CableType, error) {
	if err := s.ensureCategory(ctx, category); err != nil {
		return model.CableType{}, err
	}
	return s.AddCableType(ctx, model.CableType{Category: category, Name: name, Active: true})
}

// UpdateCableType applies p to the named cable type.
func (s *Service) UpdateCableType(ctx context.Context, category, name string, p CatalogPatch) (model.CableType, error) {
	t, err := s.store.CableType(ctx, strings.TrimSpace(category), strings.TrimSpace(name))
	if err != nil {
		return model.CableType{}, fmt.Errorf("update cable type: %w", err)
	}
	p.apply(&t.Description, &t.Active, &t.SortOrder)
	if p.TechnicalData != nil {
		t.TechnicalData = strings.TrimSpace(*p.TechnicalData)
	}
	if err := checkCableType(t); err != nil {
		return model.CableType{}, err
	}
	t.UpdatedAt = s.now()
	if err := s.store.UpdateCableType(ctx, t); err != nil {
		return model.CableType{}, fmt.Errorf("update cable type: %w", err)
	}
	s.catalogChanged(ctx, kindCableType, "update", t.Category+"/"+t.Name)
	return t, nil
}

// CableTypes lists cable types matching q. A name search needs at least two
// characters.
func (s *Service) CableTypes(ctx context.Context, q repository.CatalogQuery) ([]model.CableType, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	return s.store.CableTypes(ctx, q)
}

// AddMaterial stores a new material. An empty unit defaults to model.DefaultMaterialUnit.
func (s *Service) AddMaterial(ctx context.Context, m model.Material) (model.Material, error) {
	m = normalizeMaterial(m)
	if err := checkMaterial(m); err != nil {
		return model.Material{}, err
	}
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	if err := s.store.AddMaterial(ctx, m); err != nil {
		return model.Material{}, fmt.Errorf("add material: %w", err)
	}
	s.catalogChanged(ctx, kindMaterial, "add", m.Name)
	return m, nil
}

// UpdateMaterial applies p to the named material.
func (s *Service) UpdateMaterial(ctx context.Context, name string, p CatalogPatch) (model.Material, error) {
	m, err := s.store.Material(ctx, strings.TrimSpace(name))
	if err != nil {
		return model.Material{}, fmt.Errorf("update material: %w", err)
	}
	p.apply(&m.Description, &m.Active, &m.SortOrder)
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Unit != nil {
		m.Unit = *p.Unit
	}
	m = normalizeMaterial(m)
	if err := checkMaterial(m); err != nil {
		return model.Material{}, err
	}
	m.UpdatedAt = s.now()
	if err := s.store.UpdateMaterial(ctx, m); err != nil {
		return model.Material{}, fmt.Errorf("update material: %w", err)
	}
	s.catalogChanged(ctx, kindMaterial, "update", m.Name)
	return m, nil
}

// DeleteMaterial removes a material from the catalog. Recorded entries keep
// their material text.
func (s *Service) DeleteMaterial(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := s.store.DeleteMaterial(ctx, name); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	s.catalogChanged(ctx, kindMaterial, "delete", name)
	return nil
}

// Materials lists materials matching q, with the same search rule as CableTypes.
func (s *Service) Materials(ctx context.Context, q repository.CatalogQuery) ([]model.Material, error) {
	q, err := searchQuery(q)
	if err != nil {
		return nil, err
	}
	return s.store.Materials(ctx, q)
}

func searchQuery(q repository.CatalogQuery) (repository.CatalogQuery, error) {
	q.Name = strings.TrimSpace(q.Name)
	if q.Name != "" && len([]rune(q.Name)) < minSearchLen {
		return q, fmt.Errorf("%w: search term needs at least %d characters", ErrInvalidItem, minSearchLen)
	}
	return q, nil
}

// MaterialsByCategory groups the active materials by category in catalog
// order. Materials without a category are listed under model.OtherCategory.
func (s *Service) MaterialsByCategory(ctx context.Context) ([]model.MaterialGroup, error) {
	materials, err := s.store.Materials(ctx, repository.CatalogQuery{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	var groups []model.MaterialGroup
	index := make(map[string]int)
	for _, m := range materials {
		category := m.Category
		if category == "" {
			category = model.OtherCategory
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, model.MaterialGroup{Category: category})
		}
		groups[i].Materials = append(groups[i].Materials, m)
	}
	return groups, nil
}

// ImportCableTypes adds cable types row by row, creating missing categories.
// Rows naming a cable type that already exists count as existing; invalid
// rows count as failed and do not stop the import.
func (s *Service) ImportCableTypes(ctx context.Context, types []model.CableType) (CatalogImportResult, error) {
	res := CatalogImportResult{Total: len(types)}
	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("import interrupted: %w", err)
		}
		err := s.ensureCategory(ctx, t.Category)
		if err == nil {
			_, err = s.AddCableType(ctx, t)
		}
		res.count(strings.TrimSpace(t.Category)+"/"+strings.TrimSpace(t.Name), err)
	}
	s.logger.Info(ctx, "cable types imported",
		logger.Int("added", res.Added), logger.Int("existing", res.Existing), logger.Int("failed", res.Failed))
	return res, nil
}

// ImportMaterials adds materials row by row with the same counting as
// ImportCableTypes.
func (s *Service) ImportMaterials(ctx context.Context, materials []model.Material) (CatalogImportResult, error) {
	res := CatalogImportResult{Total: len(materials)}
	for _, m := range materials {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("import interrupted: %w", err)
		}
		_, err := s.AddMaterial(ctx, m)
		res.count(strings.TrimSpace(m.Name), err)
	}
	s.logger.Info(ctx, "materials imported",
		logger.Int("added", res.Added), logger.Int("existing", res.Existing), logger.Int("failed", res.Failed))
	return res, nil
}

func (r *CatalogImportResult) count(id string, err error) {
	switch {
	case err == nil:
		r.Added++
	case errors.Is(err, repository.ErrExists):
		r.Existing++
	default:
		r.Failed++
		r.Errors = append(r.Errors, RowError{ID: id, Error: err.Error()})
	}
}

// ensureCategory creates an active category unless one with that name exists.
func (s *Service) ensureCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	_, err := s.store.Category(ctx, name)
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	_, err = s.AddCategory(ctx, model.CableCategory{Name: name, Active: true})
	if errors.Is(err, repository.ErrExists) {
		return nil
	}
	return err
}

// unitFromCatalog fills an empty unit from the active catalog material of
// the same name.
func (s *Service) unitFromCatalog(ctx context.Context, e model.MeasurementEntry) (model.MeasurementEntry, error) {
	if e.Unit != "" {
		return e, nil
	}
	m, err := s.store.Material(ctx, e.MaterialName)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return e, nil
	case err != nil:
		return e, fmt.Errorf("material lookup: %w", err)
	}
	if m.Active {
		e.Unit = m.Unit
	}
	return e, nil
}

func (s *Service) catalogChanged(ctx context.Context, kind, op, name string) {
	metrics.RecordCatalogChange(kind, op)
	s.logger.Info(ctx, "catalog changed",
		logger.String("kind", kind),
		logger.String("operation", op),
		logger.String("name", name),
	)
}

func (p CatalogPatch) apply(description *string, active *bool, sortOrder *int) {
	if p.Description != nil {
		*description = strings.TrimSpace(*p.Description)
	}
	if p.Active != nil {
		*active = *p.Active
	}
	if p.SortOrder != nil {
		*sortOrder = *p.SortOrder
	}
}

func normalizeCableType(t model.CableType) model.CableType {
	t.Category = strings.TrimSpace(t.Category)
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	t.TechnicalData = strings.TrimSpace(t.TechnicalData)
	return t
}

func normalizeMaterial(m model.Material) model.Material {
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	m.Description = strings.TrimSpace(m.Description)
	m.Unit = strings.TrimSpace(m.Unit)
	if m.Unit == "" {
		m.Unit = model.DefaultMaterialUnit
	}
	return m
}

func checkCategory(c model.CableCategory) error {
	var v limits
	v.between("name", c.Name, minItemName, maxCategoryName)
	v.atMost("description", c.Description, maxDescription)
	return v.err()
}

func checkCableType(t model.CableType) error {
	var v limits
	if t.Category == "" {
		v.problems = append(v.problems, "category is required")
	}
	v.between("name", t.Name, minItemName, maxItemName)
	v.atMost("description", t.Description, maxDescription)
	v.atMost("technical data", t.TechnicalData, maxTechnicalData)
	return v.err()
}

func checkMaterial(m model.Material) error {
	var v limits
	v.between("name", m.Name, minItemName, maxItemName)
	v.atMost("category", m.Category, maxCategoryName)
	v.atMost("description", m.Description, maxDescription)
	v.atMost("unit", m.Unit, maxUnit)
	return v.err()
}

// limits collects length violations of catalog fields.
type limits struct {
	problems []string
}

func (l *limits) between(field, value string, lo, hi int) {
	if n := len([]rune(value)); n < lo || n > hi {
		l.problems = append(l.problems, fmt.Sprintf("%s needs %d to %d characters", field, lo, hi))
	}
}

func (l *limits) atMost(field, value string, hi int) {
	if len([]rune(value)) > hi {
		l.problems = append(l.problems, fmt.Sprintf("%s exceeds %d characters", field, hi))
	}
}

func (l *limits) err() error {
	if len(l.problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(l.problems, "; "))
}
