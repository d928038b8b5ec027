// Package model contains domain models passed between layers.
package model

import "time"

// MeasurementEntry is a recorded quantity of material or work (Aufmaß).
// Only ID, Date, Location, MaterialName, EmployeeName and Quantity take part
// in duplicate detection; the remaining fields are carried for the logbook.
type MeasurementEntry struct {
	ID           string    `json:"id" yaml:"id"`
	Date         time.Time `json:"date" yaml:"date"`
	Location     string    `json:"location" yaml:"location"`
	RoomNumber   string    `json:"room_number,omitempty" yaml:"room_number"`
	MaterialName string    `json:"material" yaml:"material"`
	Unit         string    `json:"unit,omitempty" yaml:"unit"`
	EmployeeName string    `json:"employee" yaml:"employee"`
	Quantity     float64   `json:"quantity" yaml:"quantity"`
	Remarks      string    `json:"remarks,omitempty" yaml:"remarks"`

	// DuplicateChecked is set once a reviewer confirmed the entry is not a duplicate.
	DuplicateChecked bool       `json:"duplicate_checked" yaml:"-"`
	Deleted          bool       `json:"-" yaml:"-"`
	DeletedAt        *time.Time `json:"-" yaml:"-"`
	CreatedAt        time.Time  `json:"created_at" yaml:"-"`
}

// Day truncates t to its calendar day in UTC, keeping the local Y/M/D.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LogbookEntry is the dated narrative line generated for a measurement (Bautagebuch-Eintrag).
type LogbookEntry struct {
	ID            string    `json:"id"`
	MeasurementID string    `json:"measurement_id"`
	Date          time.Time `json:"date"`
	Text          string    `json:"text"`
	Week          int       `json:"week"`
	Year          int       `json:"year"`
	CreatedAt     time.Time `json:"created_at"`
}

// WeekCount reports how many logbook entries an ISO week holds.
type WeekCount struct {
	Year  int `json:"year"`
	Week  int `json:"week"`
	Count int `json:"count"`
}
