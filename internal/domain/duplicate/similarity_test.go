package duplicate_test

import (
	"testing"
	"time"

	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(id string, date time.Time, location, material, employee string, qty float64) model.MeasurementEntry {
	return model.MeasurementEntry{
		ID:           id,
		Date:         date,
		Location:     location,
		MaterialName: material,
		EmployeeName: employee,
		Quantity:     qty,
	}
}

func TestSimilarity(t *testing.T) {
	Convey("Given the reference entries", t, func() {
		a := entry("a", day(2024, 1, 15), "Erdgeschoss", "Putz", "Max", 10)
		b := entry("b", day(2024, 1, 15), "erdgeschoss", "Putz", "Max", 10.5)
		c := entry("c", day(2024, 1, 20), "Keller", "Beton", "Anna", 50)

		Convey("When an entry is compared with itself", func() {
			Convey("Then the score is exactly one", func() {
				So(duplicate.Similarity(a, a), ShouldEqual, 1.0)
				So(duplicate.Similarity(c, c), ShouldEqual, 1.0)
			})
		})

		Convey("When the comparison order is swapped", func() {
			pairs := [][2]model.MeasurementEntry{{a, b}, {a, c}, {b, c}}

			Convey("Then the score does not change", func() {
				for _, p := range pairs {
					So(duplicate.Similarity(p[0], p[1]), ShouldEqual, duplicate.Similarity(p[1], p[0]))
				}
			})
		})

		Convey("When A is compared with B", func() {
			bd := duplicate.Explain(a, b)

			Convey("Then only the quantity earns partial credit", func() {
				So(bd.Date, ShouldEqual, 0.30)
				So(bd.Location, ShouldEqual, 0.25)
				So(bd.Material, ShouldEqual, 0.25)
				So(bd.Employee, ShouldEqual, 0.15)
				So(bd.Quantity, ShouldEqual, 0.025)
				So(bd.Total, ShouldAlmostEqual, 0.975, epsilon)
				So(bd.Total, ShouldBeGreaterThanOrEqualTo, duplicate.DefaultThreshold)
			})
		})

		Convey("When A is compared with C", func() {
			bd := duplicate.Explain(a, c)

			Convey("Then only the week proximity contributes", func() {
				So(bd.Date, ShouldEqual, 0.10)
				So(bd.Location, ShouldEqual, 0)
				So(bd.Material, ShouldEqual, 0)
				So(bd.Employee, ShouldEqual, 0)
				So(bd.Quantity, ShouldEqual, 0)
				So(bd.Total, ShouldBeLessThan, duplicate.DefaultThreshold)
			})
		})

		Convey("When two entries differ only in the employee", func() {
			other := a
			other.EmployeeName = "Anna"

			Convey("Then the score is at least 0.85", func() {
				So(duplicate.Similarity(a, other), ShouldBeGreaterThanOrEqualTo, 0.85-epsilon)
			})
		})
	})
}

func TestSimilarity_DateProximity(t *testing.T) {
	Convey("Given entries that only share a date window", t, func() {
		base := entry("x", day(2024, 3, 10), "A", "B", "C", 1)
		at := func(d time.Time) model.MeasurementEntry {
			return entry("y", d, "Z", "Y", "W", 100)
		}

		Convey("Then the date criterion steps down with distance", func() {
			So(duplicate.Explain(base, at(day(2024, 3, 10))).Date, ShouldEqual, 0.30)
			So(duplicate.Explain(base, at(day(2024, 3, 11))).Date, ShouldEqual, 0.20)
			So(duplicate.Explain(base, at(day(2024, 3, 9))).Date, ShouldEqual, 0.20)
			So(duplicate.Explain(base, at(day(2024, 3, 17))).Date, ShouldEqual, 0.10)
			So(duplicate.Explain(base, at(day(2024, 3, 18))).Date, ShouldEqual, 0)
		})

		Convey("Then the time of day is ignored", func() {
			late := base
			late.Date = time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
			early := at(time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC))
			So(duplicate.Explain(late, early).Date, ShouldEqual, 0.20)
		})
	})
}

func TestSimilarity_TextOverlap(t *testing.T) {
	Convey("Given entries with overlapping location and material text", t, func() {
		a := entry("a", day(2024, 1, 1), "Erdgeschoss", "Putz", "Max", 1)
		b := entry("b", day(2025, 1, 1), "Erdgeschoss Nord", "Kalkputz", "max", 1)

		Convey("Then containment earns partial credit in both directions", func() {
			So(duplicate.Explain(a, b).Location, ShouldEqual, 0.15)
			So(duplicate.Explain(b, a).Location, ShouldEqual, 0.15)
			So(duplicate.Explain(a, b).Material, ShouldEqual, 0.15)
		})

		Convey("Then employee names match regardless of case", func() {
			So(duplicate.Explain(a, b).Employee, ShouldEqual, 0.15)
		})

		Convey("Then employee containment earns nothing", func() {
			c := b
			c.EmployeeName = "Maximilian"
			So(duplicate.Explain(a, c).Employee, ShouldEqual, 0)
		})
	})
}

func TestSimilarity_Quantity(t *testing.T) {
	Convey("Given entries that differ in every other criterion", t, func() {
		a := entry("a", day(2024, 1, 1), "A", "B", "C", 0)
		b := entry("b", day(2023, 1, 1), "X", "Y", "Z", 5)

		Convey("When one quantity is zero", func() {
			Convey("Then the comparison does not panic and contributes nothing", func() {
				So(func() { duplicate.Explain(a, b) }, ShouldNotPanic)
				So(duplicate.Explain(a, b).Quantity, ShouldEqual, 0)
				So(duplicate.Similarity(a, b), ShouldEqual, 0)
			})
		})

		Convey("When both quantities are zero", func() {
			b.Quantity = 0
			Convey("Then they count as equal", func() {
				So(duplicate.Explain(a, b).Quantity, ShouldEqual, 0.05)
			})
		})

		Convey("When the relative difference is exactly ten percent", func() {
			a.Quantity = 90
			b.Quantity = 100
			Convey("Then half of the quantity weight is granted", func() {
				So(duplicate.Explain(a, b).Quantity, ShouldEqual, 0.025)
			})
		})

		Convey("When the relative difference exceeds ten percent", func() {
			a.Quantity = 89
			b.Quantity = 100
			Convey("Then nothing is granted", func() {
				So(duplicate.Explain(a, b).Quantity, ShouldEqual, 0)
			})
		})
	})
}

func TestSimilarity_EmptyFields(t *testing.T) {
	Convey("Given entries with missing optional fields", t, func() {
		var empty model.MeasurementEntry
		full := entry("f", day(2024, 1, 1), "Keller", "Beton", "Anna", 3)

		Convey("Then scoring tolerates them", func() {
			So(func() { duplicate.Similarity(empty, full) }, ShouldNotPanic)
			So(duplicate.Similarity(empty, empty), ShouldEqual, 1.0)
		})

		Convey("Then an empty text is contained in any other text", func() {
			So(duplicate.Explain(empty, full).Location, ShouldEqual, 0.15)
		})
	})
}
