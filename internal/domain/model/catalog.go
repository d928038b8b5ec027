package model

import "time"

// Catalog defaults.
const (
	// DefaultMaterialUnit is used for materials recorded without a unit.
	DefaultMaterialUnit = "Stück"
	// OtherCategory groups materials that have no category.
	OtherCategory = "Sonstige"
)

// CableCategory groups cable types, for example BMA or ELA. Name is unique.
type CableCategory struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool      `json:"active" yaml:"active"`
	SortOrder   int       `json:"sort_order" yaml:"sort_order"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// CableType is a cable or conduit within one category. Name is unique per category.
type CableType struct {
	Category      string    `json:"category" yaml:"category"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	TechnicalData string    `json:"technical_data,omitempty" yaml:"technical_data,omitempty"`
	Active        bool      `json:"active" yaml:"active"`
	SortOrder     int       `json:"sort_order" yaml:"sort_order"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

// Material is a selectable material or service with its default unit. Name is unique.
type Material struct {
	Name        string    `json:"name" yaml:"name"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Unit        string    `json:"unit" yaml:"unit"`
	Active      bool      `json:"active" yaml:"active"`
	SortOrder   int       `json:"sort_order" yaml:"sort_order"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// MaterialGroup lists the materials of one category.
type MaterialGroup struct {
	Category  string     `json:"category"`
	Materials []Material `json:"materials"`
}
