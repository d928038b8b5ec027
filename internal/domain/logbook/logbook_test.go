package logbook_test

import (
	"testing"
	"time"

	"github.com/okian/bautagebuch/internal/domain/logbook"
	"github.com/okian/bautagebuch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestText(t *testing.T) {
	Convey("Given a measurement with all optional fields", t, func() {
		e := model.MeasurementEntry{
			ID:           "m1",
			Date:         time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
			Location:     "Erdgeschoss",
			RoomNumber:   "1.02",
			MaterialName: "Putz",
			Unit:         "m²",
			EmployeeName: "Max",
			Quantity:     10,
			Remarks:      "Nachbesserung",
		}

		Convey("Then the logbook line mentions all of them", func() {
			So(logbook.Text(e), ShouldEqual,
				"Am 15.01.2024 führte Max in Erdgeschoss (Raum 1.02) folgende Leistung aus: Putz, Menge: 10 m². Bemerkungen: Nachbesserung")
		})

		Convey("When the optional fields are empty", func() {
			e.RoomNumber, e.Unit, e.Remarks = "", "", ""
			e.Quantity = 10.5

			Convey("Then they are left out", func() {
				So(logbook.Text(e), ShouldEqual,
					"Am 15.01.2024 führte Max in Erdgeschoss folgende Leistung aus: Putz, Menge: 10.5.")
			})
		})
	})
}

func TestNewEntry(t *testing.T) {
	Convey("Given a measurement late in the year", t, func() {
		now := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
		e := model.MeasurementEntry{
			ID:           "m2",
			Date:         time.Date(2024, 12, 30, 14, 0, 0, 0, time.UTC),
			Location:     "Keller",
			MaterialName: "Beton",
			EmployeeName: "Anna",
			Quantity:     3,
		}

		le := logbook.NewEntry(e, now)

		Convey("Then it is filed under the ISO week-year", func() {
			So(le.ID, ShouldNotBeEmpty)
			So(le.MeasurementID, ShouldEqual, "m2")
			So(le.Year, ShouldEqual, 2025)
			So(le.Week, ShouldEqual, 1)
			So(le.Date, ShouldEqual, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
			So(le.CreatedAt, ShouldEqual, now)
		})
	})
}

func TestWeekRange(t *testing.T) {
	Convey("Given ISO weeks", t, func() {
		Convey("Then Monday and Friday are computed per ISO 8601", func() {
			mon, fri := logbook.WeekRange(2024, 3)
			So(mon, ShouldEqual, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
			So(fri, ShouldEqual, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC))

			mon, _ = logbook.WeekRange(2021, 1)
			So(mon, ShouldEqual, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC))

			mon, _ = logbook.WeekRange(2020, 53)
			So(mon, ShouldEqual, time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC))
		})

		Convey("Then Monday always lies in the requested week", func() {
			for year := 2015; year <= 2030; year++ {
				mon, _ := logbook.WeekRange(year, 10)
				y, w := mon.ISOWeek()
				So(y, ShouldEqual, year)
				So(w, ShouldEqual, 10)
				So(mon.Weekday(), ShouldEqual, time.Monday)
			}
		})
	})
}

func TestBuildReport(t *testing.T) {
	Convey("Given logbook entries of one week", t, func() {
		measurements := map[string]model.MeasurementEntry{
			"a": {ID: "a", EmployeeName: "Max", Location: "Keller", MaterialName: "Beton"},
			"b": {ID: "b", EmployeeName: "Anna", Location: "Keller", MaterialName: "Putz"},
			"c": {ID: "c", EmployeeName: "Max", Location: "Dach", MaterialName: "Putz"},
		}
		entries := []model.LogbookEntry{
			{ID: "3", MeasurementID: "c", Date: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)},
			{ID: "1", MeasurementID: "a", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
			{ID: "2", MeasurementID: "b", Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
			{ID: "4", MeasurementID: "gone", Date: time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC)},
		}

		r := logbook.BuildReport(2024, 3, entries, measurements)

		Convey("Then entries are ordered by date", func() {
			So(r.Entries, ShouldHaveLength, 4)
			So(r.Entries[0].ID, ShouldEqual, "1")
			So(r.Entries[3].ID, ShouldEqual, "4")
		})

		Convey("Then the stats count distinct values", func() {
			So(r.Stats, ShouldResemble, logbook.Stats{Entries: 4, Employees: 2, Locations: 2, Materials: 2})
		})

		Convey("Then the week bounds are attached", func() {
			So(r.Monday, ShouldEqual, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
			So(r.Friday, ShouldEqual, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC))
		})

		Convey("Then the input slice is left untouched", func() {
			So(entries[0].ID, ShouldEqual, "3")
		})
	})
}
