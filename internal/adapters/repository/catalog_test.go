package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func category(name string, active bool, sortOrder int) model.CableCategory {
	return model.CableCategory{Name: name, Active: active, SortOrder: sortOrder, CreatedAt: created, UpdatedAt: created}
}

func cableType(cat, name string, active bool, sortOrder int) model.CableType {
	return model.CableType{Category: cat, Name: name, Active: active, SortOrder: sortOrder, CreatedAt: created, UpdatedAt: created}
}

func material(name, cat, unit string, active bool, sortOrder int) model.Material {
	return model.Material{Name: name, Category: cat, Unit: unit, Active: active, SortOrder: sortOrder, CreatedAt: created, UpdatedAt: created}
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = name(it)
	}
	return out
}

func categoryName(c model.CableCategory) string { return c.Name }
func cableTypeName(t model.CableType) string    { return t.Category + "/" + t.Name }
func materialName(m model.Material) string      { return m.Name }

func TestCatalog(t *testing.T) {
	for _, f := range factories() {
		Convey("Given a "+f.name+" store with cable categories", t, func() {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			So(s.AddCategory(ctx, category("ELA", true, 1)), ShouldBeNil)
			So(s.AddCategory(ctx, category("BMA", true, 1)), ShouldBeNil)
			So(s.AddCategory(ctx, category("Netzwerk", true, 0)), ShouldBeNil)
			So(s.AddCategory(ctx, category("Alt", false, 0)), ShouldBeNil)

			Convey("Then categories are ordered by sort order, then name", func() {
				all, err := s.Categories(ctx, false)
				So(err, ShouldBeNil)
				So(names(all, categoryName), ShouldResemble, []string{"Alt", "Netzwerk", "BMA", "ELA"})

				active, err := s.Categories(ctx, true)
				So(err, ShouldBeNil)
				So(names(active, categoryName), ShouldResemble, []string{"Netzwerk", "BMA", "ELA"})
			})

			Convey("When a category name is taken", func() {
				err := s.AddCategory(ctx, category("BMA", true, 0))

				Convey("Then ErrExists is returned", func() {
					So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
				})
			})

			Convey("When a category is updated", func() {
				c := category("BMA", false, 9)
				c.Description = "Brandmeldeanlage"
				c.CreatedAt = created.AddDate(1, 0, 0)
				So(s.UpdateCategory(ctx, c), ShouldBeNil)

				Convey("Then the new values are stored and the creation time kept", func() {
					got, err := s.Category(ctx, "BMA")
					So(err, ShouldBeNil)
					So(got.Description, ShouldEqual, "Brandmeldeanlage")
					So(got.Active, ShouldBeFalse)
					So(got.SortOrder, ShouldEqual, 9)
					So(got.CreatedAt.Equal(created), ShouldBeTrue)
				})
			})

			Convey("When an unknown category is read or updated", func() {
				_, err := s.Category(ctx, "KNX")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(s.UpdateCategory(ctx, category("KNX", true, 0)), repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When cable types are added", func() {
				So(s.AddCableType(ctx, cableType("BMA", "J-Y(St)Y 2x2x0,8", true, 0)), ShouldBeNil)
				So(s.AddCableType(ctx, cableType("BMA", "Alu Rohr", true, 0)), ShouldBeNil)
				So(s.AddCableType(ctx, cableType("BMA", "Brandschutzkabel E30", true, -1)), ShouldBeNil)
				So(s.AddCableType(ctx, cableType("BMA", "Altkabel", false, 0)), ShouldBeNil)
				So(s.AddCableType(ctx, cableType("ELA", "Lautsprecherkabel", true, 0)), ShouldBeNil)
				So(s.AddCableType(ctx, cableType("Alt", "Alu Rohr", true, 0)), ShouldBeNil)

				Convey("Then they are listed by category, sort order, then name", func() {
					all, err := s.CableTypes(ctx, repository.CatalogQuery{})
					So(err, ShouldBeNil)
					So(names(all, cableTypeName), ShouldResemble, []string{
						"Alt/Alu Rohr",
						"BMA/Brandschutzkabel E30",
						"BMA/Altkabel",
						"BMA/Alu Rohr",
						"BMA/J-Y(St)Y 2x2x0,8",
						"ELA/Lautsprecherkabel",
					})
				})

				Convey("Then the active filter drops inactive types and types of inactive categories", func() {
					got, err := s.CableTypes(ctx, repository.CatalogQuery{ActiveOnly: true})
					So(err, ShouldBeNil)
					So(names(got, cableTypeName), ShouldResemble, []string{
						"BMA/Brandschutzkabel E30",
						"BMA/Alu Rohr",
						"BMA/J-Y(St)Y 2x2x0,8",
						"ELA/Lautsprecherkabel",
					})
				})

				Convey("Then they can be filtered by category and searched by name", func() {
					got, err := s.CableTypes(ctx, repository.CatalogQuery{Category: "BMA", Name: "ALU"})
					So(err, ShouldBeNil)
					So(names(got, cableTypeName), ShouldResemble, []string{"BMA/Alu Rohr"})

					got, err = s.CableTypes(ctx, repository.CatalogQuery{Name: "kabel", ActiveOnly: true})
					So(err, ShouldBeNil)
					So(names(got, cableTypeName), ShouldResemble, []string{"BMA/Brandschutzkabel E30", "ELA/Lautsprecherkabel"})
				})

				Convey("Then the same name may exist once per category", func() {
					err := s.AddCableType(ctx, cableType("BMA", "Alu Rohr", true, 0))
					So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
				})

				Convey("Then a cable type can be updated", func() {
					ct := cableType("BMA", "Alu Rohr", true, 3)
					ct.TechnicalData = "M20"
					So(s.UpdateCableType(ctx, ct), ShouldBeNil)

					got, err := s.CableType(ctx, "BMA", "Alu Rohr")
					So(err, ShouldBeNil)
					So(got.TechnicalData, ShouldEqual, "M20")
					So(got.SortOrder, ShouldEqual, 3)
				})
			})

			Convey("When a cable type names an unknown category", func() {
				err := s.AddCableType(ctx, cableType("KNX", "Busleitung", true, 0))

				Convey("Then ErrNotFound is returned", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					_, err = s.CableType(ctx, "KNX", "Busleitung")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					So(errors.Is(s.UpdateCableType(ctx, cableType("KNX", "Busleitung", true, 0)), repository.ErrNotFound), ShouldBeTrue)
				})
			})
		})

		Convey("Given a "+f.name+" store with materials", t, func() {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			So(s.AddMaterial(ctx, material("Putz innen", "Ausbau", "m²", true, 0)), ShouldBeNil)
			So(s.AddMaterial(ctx, material("Estrich", "Ausbau", "m²", true, 0)), ShouldBeNil)
			So(s.AddMaterial(ctx, material("Mauerwerk 24cm", "Rohbau", "m²", true, 0)), ShouldBeNil)
			So(s.AddMaterial(ctx, material("Steckdose", "", "Stk", true, 0)), ShouldBeNil)
			So(s.AddMaterial(ctx, material("Asbestplatte", "Rohbau", "m²", false, 0)), ShouldBeNil)

			Convey("Then they are listed by category, sort order, then name", func() {
				all, err := s.Materials(ctx, repository.CatalogQuery{})
				So(err, ShouldBeNil)
				So(names(all, materialName), ShouldResemble,
					[]string{"Steckdose", "Estrich", "Putz innen", "Asbestplatte", "Mauerwerk 24cm"})

				active, err := s.Materials(ctx, repository.CatalogQuery{ActiveOnly: true, Category: "Rohbau"})
				So(err, ShouldBeNil)
				So(names(active, materialName), ShouldResemble, []string{"Mauerwerk 24cm"})

				found, err := s.Materials(ctx, repository.CatalogQuery{Name: "PUTZ"})
				So(err, ShouldBeNil)
				So(names(found, materialName), ShouldResemble, []string{"Putz innen"})
			})

			Convey("When a material is looked up", func() {
				m, err := s.Material(ctx, "Steckdose")

				Convey("Then its unit is returned", func() {
					So(err, ShouldBeNil)
					So(m.Unit, ShouldEqual, "Stk")
					So(m.Active, ShouldBeTrue)
				})
			})

			Convey("When a material is added twice", func() {
				err := s.AddMaterial(ctx, material("Estrich", "", "m³", true, 0))

				Convey("Then ErrExists is returned", func() {
					So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
				})
			})

			Convey("When a material is deactivated", func() {
				So(s.UpdateMaterial(ctx, material("Estrich", "Ausbau", "m²", false, 0)), ShouldBeNil)

				Convey("Then it leaves the active list", func() {
					got, err := s.Materials(ctx, repository.CatalogQuery{ActiveOnly: true, Category: "Ausbau"})
					So(err, ShouldBeNil)
					So(names(got, materialName), ShouldResemble, []string{"Putz innen"})
				})
			})

			Convey("When a material is deleted", func() {
				So(s.DeleteMaterial(ctx, "Estrich"), ShouldBeNil)

				Convey("Then it is gone and a second delete fails", func() {
					_, err := s.Material(ctx, "Estrich")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					So(errors.Is(s.DeleteMaterial(ctx, "Estrich"), repository.ErrNotFound), ShouldBeTrue)
					So(errors.Is(s.UpdateMaterial(ctx, material("Estrich", "", "m²", true, 0)), repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When the store is closed", func() {
				So(s.Close(), ShouldBeNil)

				Convey("Then catalog operations report ErrClosed", func() {
					_, err := s.Materials(ctx, repository.CatalogQuery{})
					So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
					_, err = s.Categories(ctx, false)
					So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
					So(errors.Is(s.AddMaterial(ctx, material("Gips", "", "kg", true, 0)), repository.ErrClosed), ShouldBeTrue)
				})
			})
		})
	}
}
