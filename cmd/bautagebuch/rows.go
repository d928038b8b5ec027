package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// row is the file format of import and seed files. Dates are plain strings
// so that YYYY-MM-DD and DD.MM.YYYY work in JSON and YAML alike.
type row struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Date     string  `json:"date" yaml:"date"`
	Location string  `json:"location" yaml:"location"`
	Room     string  `json:"room_number,omitempty" yaml:"room_number,omitempty"`
	Material string  `json:"material" yaml:"material"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Employee string  `json:"employee" yaml:"employee"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
	Remarks  string  `json:"remarks,omitempty" yaml:"remarks,omitempty"`
}

func rowFromEntry(e model.MeasurementEntry) row {
	return row{
		ID:       e.ID,
		Date:     e.Date.Format("2006-01-02"),
		Location: e.Location,
		Room:     e.RoomNumber,
		Material: e.MaterialName,
		Unit:     e.Unit,
		Employee: e.EmployeeName,
		Quantity: e.Quantity,
		Remarks:  e.Remarks,
	}
}

func (r row) entry() (model.MeasurementEntry, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return model.MeasurementEntry{}, err
	}
	return model.MeasurementEntry{
		ID:           r.ID,
		Date:         date,
		Location:     r.Location,
		RoomNumber:   r.Room,
		MaterialName: r.Material,
		Unit:         r.Unit,
		EmployeeName: r.Employee,
		Quantity:     r.Quantity,
		Remarks:      r.Remarks,
	}, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// decodeRows decodes a JSON array or a YAML sequence of T. Unknown fields are errors.
func decodeRows[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rows []T
	if isJSON(path) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&rows)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&rows)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// readRows reads measurement rows.
func readRows(path string) ([]model.MeasurementEntry, error) {
	rows, err := decodeRows[row](path)
	if err != nil {
		return nil, err
	}
	entries := make([]model.MeasurementEntry, 0, len(rows))
	for i, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// cableRow is the file format of cable type imports. A missing active flag
// means active.
type cableRow struct {
	Category      string `json:"category" yaml:"category"`
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	TechnicalData string `json:"technical_data,omitempty" yaml:"technical_data,omitempty"`
	Active        *bool  `json:"active,omitempty" yaml:"active,omitempty"`
	SortOrder     int    `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

// materialRow is the file format of material imports.
type materialRow struct {
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Active      *bool  `json:"active,omitempty" yaml:"active,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
}

func readCableRows(path string) ([]model.CableType, error) {
	rows, err := decodeRows[cableRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.CableType, len(rows))
	for i, r := range rows {
		out[i] = model.CableType{
			Category:      r.Category,
			Name:          r.Name,
			Description:   r.Description,
			TechnicalData: r.TechnicalData,
			Active:        r.Active == nil || *r.Active,
			SortOrder:     r.SortOrder,
		}
	}
	return out, nil
}

func readMaterialRows(path string) ([]model.Material, error) {
	rows, err := decodeRows[materialRow](path)
	if err != nil {
		return nil, err
	}
	out := make([]model.Material, len(rows))
	for i, r := range rows {
		out[i] = model.Material{
			Name:        r.Name,
			Category:    r.Category,
			Unit:        r.Unit,
			Description: r.Description,
			Active:      r.Active == nil || *r.Active,
			SortOrder:   r.SortOrder,
		}
	}
	return out, nil
}

// writeRows stores entries in the format chosen by the file extension.
func writeRows(path string, entries []model.MeasurementEntry) error {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = rowFromEntry(e)
	}
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(rows, "", "  ")
	} else {
		data, err = yaml.Marshal(rows)
	}
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
