package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestCableCatalog(t *testing.T) {
	Convey("Given a service with an empty catalog", t, func() {
		ctx := context.Background()
		svc := newService()
		defer func() { _ = svc.Close() }()

		Convey("When a category is added with padded input", func() {
			c, err := svc.AddCategory(ctx, model.CableCategory{Name: " BMA ", Description: " Brandmeldeanlage ", Active: true})

			Convey("Then it is stored trimmed with timestamps", func() {
				So(err, ShouldBeNil)
				So(c.Name, ShouldEqual, "BMA")
				So(c.Description, ShouldEqual, "Brandmeldeanlage")
				So(c.CreatedAt.Equal(clock), ShouldBeTrue)
				cats, err := svc.Categories(ctx, true)
				So(err, ShouldBeNil)
				So(cats, ShouldHaveLength, 1)
			})

			Convey("Then adding it again fails with ErrExists", func() {
				_, err := svc.AddCategory(ctx, model.CableCategory{Name: "BMA"})
				So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
			})

			Convey("Then it can be deactivated", func() {
				c, err := svc.UpdateCategory(ctx, "BMA", service.CatalogPatch{Active: ptr(false), SortOrder: ptr(2)})
				So(err, ShouldBeNil)
				So(c.Active, ShouldBeFalse)
				So(c.SortOrder, ShouldEqual, 2)
				So(c.Description, ShouldEqual, "Brandmeldeanlage")

				cats, err := svc.Categories(ctx, true)
				So(err, ShouldBeNil)
				So(cats, ShouldBeEmpty)
			})
		})

		Convey("When names break the length limits", func() {
			_, short := svc.AddCategory(ctx, model.CableCategory{Name: "B"})
			_, long := svc.AddCableType(ctx, model.CableType{Category: "BMA", Name: strings.Repeat("x", 256)})
			_, noCat := svc.AddCableType(ctx, model.CableType{Name: "Alu Rohr"})

			Convey("Then ErrInvalidItem names the problem", func() {
				So(errors.Is(short, service.ErrInvalidItem), ShouldBeTrue)
				So(short.Error(), ShouldContainSubstring, "name needs 2 to 100 characters")
				So(errors.Is(long, service.ErrInvalidItem), ShouldBeTrue)
				So(long.Error(), ShouldContainSubstring, "name needs 2 to 255 characters")
				So(noCat.Error(), ShouldContainSubstring, "category is required")
			})
		})

		Convey("When a cable type is quick-added to a new category", func() {
			ct, err := svc.QuickAddCableType(ctx, "ELA", "Lautsprecherkabel 2x1,5")

			Convey("Then the category is created active and the type stored", func() {
				So(err, ShouldBeNil)
				So(ct.Active, ShouldBeTrue)
				cats, err := svc.Categories(ctx, true)
				So(err, ShouldBeNil)
				So(cats, ShouldHaveLength, 1)
				So(cats[0].Name, ShouldEqual, "ELA")
			})

			Convey("Then a second quick add into the same category reuses it", func() {
				_, err := svc.QuickAddCableType(ctx, "ELA", "Alu Rohr")
				So(err, ShouldBeNil)
				types, err := svc.CableTypes(ctx, repository.CatalogQuery{Category: "ELA"})
				So(err, ShouldBeNil)
				So(types, ShouldHaveLength, 2)
			})

			Convey("Then its technical data can be edited", func() {
				ct, err := svc.UpdateCableType(ctx, "ELA", "Lautsprecherkabel 2x1,5", service.CatalogPatch{TechnicalData: ptr(" 100 V ")})
				So(err, ShouldBeNil)
				So(ct.TechnicalData, ShouldEqual, "100 V")
			})
		})

		Convey("When cable types are searched with a single character", func() {
			_, err := svc.CableTypes(ctx, repository.CatalogQuery{Name: " a "})

			Convey("Then the search is rejected", func() {
				So(errors.Is(err, service.ErrInvalidItem), ShouldBeTrue)
			})
		})

		Convey("When cable types are imported", func() {
			_, err := svc.AddCategory(ctx, model.CableCategory{Name: "BMA", Active: true})
			So(err, ShouldBeNil)
			_, err = svc.AddCableType(ctx, model.CableType{Category: "BMA", Name: "Alu Rohr", Active: true})
			So(err, ShouldBeNil)

			res, err := svc.ImportCableTypes(ctx, []model.CableType{
				{Category: "BMA", Name: "J-Y(St)Y 2x2x0,8", Active: true},
				{Category: "BMA", Name: "Alu Rohr", Active: true},
				{Category: "Netzwerk", Name: "Cat.7 Verlegekabel", Active: true},
				{Category: "Netzwerk", Name: "x"},
				{Category: "", Name: "Ohne Kategorie"},
			})

			Convey("Then rows are counted by outcome and missing categories created", func() {
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 5)
				So(res.Added, ShouldEqual, 2)
				So(res.Existing, ShouldEqual, 1)
				So(res.Failed, ShouldEqual, 2)
				So(res.Errors[0].ID, ShouldEqual, "Netzwerk/x")

				cats, err := svc.Categories(ctx, false)
				So(err, ShouldBeNil)
				So(cats, ShouldHaveLength, 2)
			})
		})

		Convey("When an import is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.ImportCableTypes(cctx, []model.CableType{{Category: "BMA", Name: "Alu Rohr"}})

			Convey("Then it stops with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestMaterialCatalog(t *testing.T) {
	Convey("Given a service with materials", t, func() {
		ctx := context.Background()
		svc := newService()
		defer func() { _ = svc.Close() }()

		res, err := svc.ImportMaterials(ctx, []model.Material{
			{Name: "Putz innen", Category: "Ausbau", Unit: "m²", Active: true},
			{Name: "Mauerwerk 24cm", Category: "Rohbau", Unit: "m²", Active: true},
			{Name: "Steckdose", Active: true},
			{Name: "Kabelkanal", Unit: "m", Active: false},
			{Name: "Putz innen", Unit: "m²", Active: true},
		})
		So(err, ShouldBeNil)
		So(res.Added, ShouldEqual, 4)
		So(res.Existing, ShouldEqual, 1)

		Convey("When a material has no unit", func() {
			got, err := svc.Materials(ctx, repository.CatalogQuery{Name: "steckdose"})

			Convey("Then it gets the default unit", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Unit, ShouldEqual, model.DefaultMaterialUnit)
			})
		})

		Convey("When materials are searched with a single character", func() {
			_, err := svc.Materials(ctx, repository.CatalogQuery{Name: "P"})

			Convey("Then the search is rejected", func() {
				So(errors.Is(err, service.ErrInvalidItem), ShouldBeTrue)
			})
		})

		Convey("When active materials are grouped by category", func() {
			groups, err := svc.MaterialsByCategory(ctx)

			Convey("Then materials without a category are listed under Sonstige", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldHaveLength, 3)
				So(groups[0].Category, ShouldEqual, model.OtherCategory)
				So(groups[0].Materials, ShouldHaveLength, 1)
				So(groups[0].Materials[0].Name, ShouldEqual, "Steckdose")
				So(groups[1].Category, ShouldEqual, "Ausbau")
				So(groups[2].Category, ShouldEqual, "Rohbau")
			})
		})

		Convey("When an entry is recorded without a unit", func() {
			e := measurement(day(2024, 1, 15), "Erdgeschoss", "Putz innen", "Max", 12)
			e.Unit = ""
			rec, err := svc.Record(ctx, e)

			Convey("Then the unit comes from the catalog", func() {
				So(err, ShouldBeNil)
				So(rec.Entry.Unit, ShouldEqual, "m²")
				So(rec.Logbook.Text, ShouldContainSubstring, "Menge: 12 m²")
			})
		})

		Convey("When an entry names an inactive or unknown material", func() {
			inactive := measurement(day(2024, 1, 15), "Flur", "Kabelkanal", "Max", 4)
			inactive.Unit = ""
			unknown := measurement(day(2024, 1, 15), "Flur", "Trockenbau", "Max", 4)
			unknown.Unit = ""
			a, errA := svc.Record(ctx, inactive)
			b, errB := svc.Record(ctx, unknown)

			Convey("Then the unit stays empty", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Entry.Unit, ShouldBeEmpty)
				So(b.Entry.Unit, ShouldBeEmpty)
			})
		})

		Convey("When a material is changed", func() {
			m, err := svc.UpdateMaterial(ctx, "Steckdose", service.CatalogPatch{Category: ptr("Haustechnik"), Unit: ptr("Stk")})

			Convey("Then the new category and unit are stored", func() {
				So(err, ShouldBeNil)
				So(m.Category, ShouldEqual, "Haustechnik")
				got, err := svc.Materials(ctx, repository.CatalogQuery{Category: "Haustechnik"})
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Unit, ShouldEqual, "Stk")
			})
		})

		Convey("When a material is deleted", func() {
			So(svc.DeleteMaterial(ctx, "Steckdose"), ShouldBeNil)

			Convey("Then deleting it again reports ErrNotFound", func() {
				So(errors.Is(svc.DeleteMaterial(ctx, "Steckdose"), repository.ErrNotFound), ShouldBeTrue)
				_, err := svc.UpdateMaterial(ctx, "Steckdose", service.CatalogPatch{})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
