// Package logbook turns measurement entries into dated Bautagebuch lines and
// groups them into ISO calendar week reports.
package logbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bautagebuch/internal/domain/model"
)

const (
	dateLayout  = "02.01.2006"
	daysPerWeek = 7
	fridayDelta = 4
)

// Text renders the narrative logbook line for a measurement.
func Text(e model.MeasurementEntry) string {
	var b strings.Builder
	b.WriteString("Am ")
	b.WriteString(e.Date.Format(dateLayout))
	b.WriteString(" führte ")
	b.WriteString(e.EmployeeName)
	b.WriteString(" in ")
	b.WriteString(e.Location)
	if e.RoomNumber != "" {
		b.WriteString(" (Raum ")
		b.WriteString(e.RoomNumber)
		b.WriteString(")")
	}
	b.WriteString(" folgende Leistung aus: ")
	b.WriteString(e.MaterialName)
	b.WriteString(", Menge: ")
	b.WriteString(strconv.FormatFloat(e.Quantity, 'f', -1, 64))
	if e.Unit != "" {
		b.WriteString(" ")
		b.WriteString(e.Unit)
	}
	b.WriteString(".")
	if e.Remarks != "" {
		b.WriteString(" Bemerkungen: ")
		b.WriteString(e.Remarks)
	}
	return b.String()
}

// NewEntry builds the logbook entry that accompanies a measurement.
func NewEntry(e model.MeasurementEntry, now time.Time) model.LogbookEntry {
	year, week := e.Date.ISOWeek()
	return model.LogbookEntry{
		ID:            uuid.NewString(),
		MeasurementID: e.ID,
		Date:          model.Day(e.Date),
		Text:          Text(e),
		Week:          week,
		Year:          year,
		CreatedAt:     now,
	}
}

// WeekRange returns Monday and Friday of an ISO week.
func WeekRange(year, week int) (monday, friday time.Time) {
	// January 4th always falls into ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + daysPerWeek - 1) % daysPerWeek
	monday = jan4.AddDate(0, 0, -offset+(week-1)*daysPerWeek)
	return monday, monday.AddDate(0, 0, fridayDelta)
}
