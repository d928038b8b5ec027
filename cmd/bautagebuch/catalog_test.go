package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	"github.com/okian/bautagebuch/internal/domain/model"
)

func TestCableCommands(t *testing.T) {
	convey.Convey("Given an empty cable catalog", t, func() {
		dir := useTempStore(t)

		convey.Convey("When categories and cable types are added", func() {
			out, err := execute("cable", "category", "add", "BMA", "-d", "Brandmeldeanlage", "--sort", "1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "added category BMA")

			_, err = execute("cable", "add", "BMA", "J-Y(St)Y 2x2x0,8", "-t", "2x2x0,8 mm")
			convey.So(err, convey.ShouldBeNil)
			out, err = execute("cable", "add", "--quick", "ELA", "Lautsprecherkabel")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "added cable type Lautsprecherkabel in ELA")

			convey.Convey("Then both categories are listed", func() {
				out, err := execute("cable", "categories")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Brandmeldeanlage")
				convey.So(out, convey.ShouldContainSubstring, "ELA")
			})

			convey.Convey("Then cable types can be searched", func() {
				out, err := execute("cable", "list", "-s", "st")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "2x2x0,8 mm")
				convey.So(out, convey.ShouldNotContainSubstring, "Lautsprecherkabel")
			})

			convey.Convey("Then a deactivated category hides its cable types", func() {
				out, err := execute("cable", "category", "edit", "ELA", "--active=false")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "active false")

				out, err = execute("cable", "list", "--json")
				convey.So(err, convey.ShouldBeNil)
				var types []model.CableType
				convey.So(json.Unmarshal([]byte(out), &types), convey.ShouldBeNil)
				convey.So(types, convey.ShouldHaveLength, 1)
				convey.So(types[0].Category, convey.ShouldEqual, "BMA")

				out, err = execute("cable", "list", "--all")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Lautsprecherkabel")
			})

			convey.Convey("Then only the given fields of a cable type change", func() {
				_, err := execute("cable", "edit", "BMA", "J-Y(St)Y 2x2x0,8", "--sort", "5")
				convey.So(err, convey.ShouldBeNil)
				out, err := execute("cable", "list", "--category", "BMA", "--json")
				convey.So(err, convey.ShouldBeNil)
				var types []model.CableType
				convey.So(json.Unmarshal([]byte(out), &types), convey.ShouldBeNil)
				convey.So(types[0].SortOrder, convey.ShouldEqual, 5)
				convey.So(types[0].TechnicalData, convey.ShouldEqual, "2x2x0,8 mm")
			})
		})

		convey.Convey("When a cable type names an unknown category without --quick", func() {
			_, err := execute("cable", "add", "KNX", "Busleitung")

			convey.Convey("Then it is refused", func() {
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a YAML file of cable types is imported", func() {
			file := filepath.Join(dir, "kabel.yaml")
			convey.So(os.WriteFile(file, []byte(`
- category: Netzwerk
  name: Cat.7 Verlegekabel
  technical_data: S/FTP
- category: Netzwerk
  name: Alu Rohr
  active: false
- category: Netzwerk
  name: Cat.7 Verlegekabel
- category: Netzwerk
  name: x
`), 0o600), convey.ShouldBeNil)
			out, err := execute("cable", "import", file)

			convey.Convey("Then every row is accounted for", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "4 rows: 2 added, 1 existing, 1 failed")
				convey.So(out, convey.ShouldContainSubstring, "Netzwerk/x:")

				out, err := execute("cable", "list", "--all", "--json")
				convey.So(err, convey.ShouldBeNil)
				var types []model.CableType
				convey.So(json.Unmarshal([]byte(out), &types), convey.ShouldBeNil)
				convey.So(types, convey.ShouldHaveLength, 2)
				convey.So(types[0].Name, convey.ShouldEqual, "Alu Rohr")
				convey.So(types[0].Active, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When an import file has unknown fields", func() {
			file := filepath.Join(dir, "kabel.json")
			convey.So(os.WriteFile(file, []byte(`[{"category": "BMA", "name": "Alu Rohr", "colour": "grau"}]`), 0o600), convey.ShouldBeNil)
			_, err := execute("cable", "import", file)

			convey.Convey("Then the file is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "parse")
			})
		})
	})
}

func TestMaterialCommands(t *testing.T) {
	convey.Convey("Given materials imported from YAML", t, func() {
		dir := useTempStore(t)

		file := filepath.Join(dir, "material.yaml")
		convey.So(os.WriteFile(file, []byte(`
- name: Putz innen
  category: Ausbau
  unit: m²
- name: Estrich
  category: Ausbau
  unit: m²
  sort_order: -1
- name: Steckdose
- name: Kabelkanal
  unit: m
  active: false
`), 0o600), convey.ShouldBeNil)
		out, err := execute("material", "import", file)
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "4 rows: 4 added, 0 existing, 0 failed")

		convey.Convey("When they are listed grouped", func() {
			out, err := execute("material", "list", "--grouped")

			convey.Convey("Then active materials appear under their category", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Ausbau\n  Estrich (m²)\n  Putz innen (m²)")
				convey.So(out, convey.ShouldContainSubstring, "Sonstige\n  Steckdose (Stück)")
				convey.So(out, convey.ShouldNotContainSubstring, "Kabelkanal")
			})
		})

		convey.Convey("When an entry is recorded without a unit", func() {
			out, err := execute("record", "--date", "2024-01-15", "-l", "Erdgeschoss", "-m", "Putz innen", "-e", "Max", "-q", "12")

			convey.Convey("Then the unit comes from the catalog", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Menge: 12 m²")
			})
		})

		convey.Convey("When a material is added and edited", func() {
			out, err := execute("material", "add", "Fliesen", "--category", "Ausbau", "-u", "m²")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "added material Fliesen (m²)")

			out, err = execute("material", "edit", "Fliesen", "-u", "Pak")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the new unit is shown", func() {
				convey.So(out, convey.ShouldContainSubstring, "updated material Fliesen (Pak, active true)")
				out, err := execute("material", "list", "-s", "flie")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Pak")
			})
		})

		convey.Convey("When a material is deleted", func() {
			_, err := execute("material", "delete", "Steckdose")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is gone from the full list", func() {
				out, err := execute("material", "list", "--all", "--json")
				convey.So(err, convey.ShouldBeNil)
				var materials []model.Material
				convey.So(json.Unmarshal([]byte(out), &materials), convey.ShouldBeNil)
				convey.So(materials, convey.ShouldHaveLength, 3)

				_, err = execute("material", "delete", "Steckdose")
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the list is searched with one character", func() {
			_, err := execute("material", "list", "-s", "P")

			convey.Convey("Then it is refused", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
