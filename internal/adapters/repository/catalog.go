package repository

import (
	"context"
	"sort"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// CatalogQuery filters catalog listings. Zero values disable a filter.
type CatalogQuery struct {
	// Category matches the category name exactly.
	Category string
	// Name matches a case-insensitive substring of the item name.
	Name string
	// ActiveOnly drops inactive items. Cable types of an inactive category
	// count as inactive.
	ActiveOnly bool
}

// Catalog stores the reference data offered when recording entries: cable
// categories with their cable types, and materials with a default unit.
// Items are keyed by name; Add of a taken name returns ErrExists and Update
// or lookup of an unknown one returns ErrNotFound.
type Catalog interface {
	AddCategory(ctx context.Context, c model.CableCategory) error
	UpdateCategory(ctx context.Context, c model.CableCategory) error
	Category(ctx context.Context, name string) (model.CableCategory, error)
	// Categories lists categories by sort order, then name.
	Categories(ctx context.Context, activeOnly bool) ([]model.CableCategory, error)

	// AddCableType returns ErrNotFound when the category does not exist.
	AddCableType(ctx context.Context, t model.CableType) error
	UpdateCableType(ctx context.Context, t model.CableType) error
	CableType(ctx context.Context, category, name string) (model.CableType, error)
	// CableTypes lists cable types by category, sort order, then name.
	CableTypes(ctx context.Context, q CatalogQuery) ([]model.CableType, error)

	AddMaterial(ctx context.Context, m model.Material) error
	UpdateMaterial(ctx context.Context, m model.Material) error
	Material(ctx context.Context, name string) (model.Material, error)
	// Materials lists materials by category, sort order, then name.
	Materials(ctx context.Context, q CatalogQuery) ([]model.Material, error)
	DeleteMaterial(ctx context.Context, name string) error
}

func sortCategories(cs []model.CableCategory) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].SortOrder != cs[j].SortOrder {
			return cs[i].SortOrder < cs[j].SortOrder
		}
		return cs[i].Name < cs[j].Name
	})
}

func sortCableTypes(ts []model.CableType) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
}

func sortMaterials(ms []model.Material) {
	sort.Slice(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
}

// matches applies the category and name filters. The active filter needs
// store state and is checked by the caller.
func (q CatalogQuery) matches(category, name string) bool {
	if q.Category != "" && category != q.Category {
		return false
	}
	return q.Name == "" || containsFold(name, q.Name)
}
