package logbook

import (
	"sort"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

// Stats summarizes a weekly report.
type Stats struct {
	Entries   int `json:"entries"`
	Employees int `json:"employees"`
	Locations int `json:"locations"`
	Materials int `json:"materials"`
}

// Report is the logbook of one ISO calendar week (Wochenbericht).
type Report struct {
	Year    int                  `json:"year"`
	Week    int                  `json:"week"`
	Monday  time.Time            `json:"monday"`
	Friday  time.Time            `json:"friday"`
	Entries []model.LogbookEntry `json:"entries"`
	Stats   Stats                `json:"stats"`
}

// BuildReport assembles a weekly report. measurements maps measurement IDs to
// their entries and feeds the distinct employee, location and material counts;
// logbook lines without a known measurement only count as entries.
func BuildReport(year, week int, entries []model.LogbookEntry, measurements map[string]model.MeasurementEntry) Report {
	monday, friday := WeekRange(year, week)

	sorted := make([]model.LogbookEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	employees := make(map[string]struct{})
	locations := make(map[string]struct{})
	materials := make(map[string]struct{})
	for _, le := range sorted {
		m, ok := measurements[le.MeasurementID]
		if !ok {
			continue
		}
		employees[m.EmployeeName] = struct{}{}
		locations[m.Location] = struct{}{}
		materials[m.MaterialName] = struct{}{}
	}

	return Report{
		Year:    year,
		Week:    week,
		Monday:  monday,
		Friday:  friday,
		Entries: sorted,
		Stats: Stats{
			Entries:   len(sorted),
			Employees: len(employees),
			Locations: len(locations),
			Materials: len(materials),
		},
	}
}
