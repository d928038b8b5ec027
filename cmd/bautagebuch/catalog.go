package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
)

// itemFlags holds the flags shared by the catalog add and edit commands.
type itemFlags struct {
	description   string
	technicalData string
	category      string
	unit          string
	sortOrder     int
	active        bool
	inactive      bool
}

func (f *itemFlags) register(cmd *cobra.Command, cable, material, edit bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.description, "description", "d", "", "description")
	fs.IntVar(&f.sortOrder, "sort", 0, "sort order, lower first")
	if cable {
		fs.StringVarP(&f.technicalData, "technical-data", "t", "", "technical data")
	}
	if material {
		fs.StringVar(&f.category, "category", "", "material category")
		fs.StringVarP(&f.unit, "unit", "u", "", "default unit")
	}
	if edit {
		fs.BoolVar(&f.active, "active", true, "offer the item for selection")
	} else {
		fs.BoolVar(&f.inactive, "inactive", false, "add the item deactivated")
	}
}

// patch carries only the flags given on the command line.
func (f *itemFlags) patch(cmd *cobra.Command) service.CatalogPatch {
	var p service.CatalogPatch
	changed := cmd.Flags().Changed
	if changed("description") {
		p.Description = &f.description
	}
	if changed("technical-data") {
		p.TechnicalData = &f.technicalData
	}
	if changed("category") {
		p.Category = &f.category
	}
	if changed("unit") {
		p.Unit = &f.unit
	}
	if changed("active") {
		p.Active = &f.active
	}
	if changed("sort") {
		p.SortOrder = &f.sortOrder
	}
	return p
}

// queryFlags filters catalog listings.
type queryFlags struct {
	q      repository.CatalogQuery
	all    bool
	asJSON bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.q.Category, "category", "", "only this category")
	fs.StringVarP(&f.q.Name, "search", "s", "", "name contains (at least 2 characters)")
	fs.BoolVar(&f.all, "all", false, "include deactivated items")
	fs.BoolVar(&f.asJSON, "json", false, "output as JSON")
}

func (f *queryFlags) query() repository.CatalogQuery {
	q := f.q
	q.ActiveOnly = !f.all
	return q
}

func (c *cli) cableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cable",
		Short: "Manage cable categories and cable types",
	}
	category := &cobra.Command{
		Use:   "category",
		Short: "Add or edit cable categories",
	}
	category.AddCommand(c.categoryAddCmd(), c.categoryEditCmd())
	cmd.AddCommand(
		c.categoriesCmd(),
		category,
		c.cableListCmd(),
		c.cableAddCmd(),
		c.cableEditCmd(),
		c.cableImportCmd(),
	)
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	var all, asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List cable categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				cats, err := svc.Categories(ctx, !all)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, cats)
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tSORT\tACTIVE\tDESCRIPTION")
				for _, cat := range cats {
					fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", cat.Name, cat.SortOrder, cat.Active, cat.Description)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated categories")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) categoryAddCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a cable category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				cat, err := svc.AddCategory(ctx, model.CableCategory{
					Name:        args[0],
					Description: f.description,
					Active:      !f.inactive,
					SortOrder:   f.sortOrder,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added category %s\n", cat.Name)
				return nil
			})
		},
	}
	f.register(cmd, false, false, false)
	return cmd
}

func (c *cli) categoryEditCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change description, sort order or state of a cable category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				cat, err := svc.UpdateCategory(ctx, args[0], f.patch(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated category %s (active %t)\n", cat.Name, cat.Active)
				return nil
			})
		},
	}
	f.register(cmd, false, false, true)
	return cmd
}

func (c *cli) cableListCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cable types by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				types, err := svc.CableTypes(ctx, f.query())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if f.asJSON {
					return writeJSON(out, types)
				}
				printCableTypes(out, types)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) cableAddCmd() *cobra.Command {
	var (
		f     itemFlags
		quick bool
	)
	cmd := &cobra.Command{
		Use:   "add <category> <name>",
		Short: "Add a cable type to a category",
		Long: `Add a cable type to an existing category. With --quick a missing category is
created on the fly.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				var (
					ct  model.CableType
					err error
				)
				if quick {
					ct, err = svc.QuickAddCableType(ctx, args[0], args[1])
				} else {
					ct, err = svc.AddCableType(ctx, model.CableType{
						Category:      args[0],
						Name:          args[1],
						Description:   f.description,
						TechnicalData: f.technicalData,
						Active:        !f.inactive,
						SortOrder:     f.sortOrder,
					})
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added cable type %s in %s\n", ct.Name, ct.Category)
				return nil
			})
		},
	}
	f.register(cmd, true, false, false)
	cmd.Flags().BoolVar(&quick, "quick", false, "create the category if it does not exist")
	return cmd
}

func (c *cli) cableEditCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <category> <name>",
		Short: "Change a cable type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				ct, err := svc.UpdateCableType(ctx, args[0], args[1], f.patch(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated cable type %s in %s (active %t)\n", ct.Name, ct.Category, ct.Active)
				return nil
			})
		},
	}
	f.register(cmd, true, false, true)
	return cmd
}

func (c *cli) cableImportCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add cable types from a YAML or JSON file",
		Long: `Add cable types from a YAML (.yaml, .yml) or JSON (.json) file holding a list
of rows with the fields category, name, description, technical_data, active and
sort_order. Missing categories are created, known cable types are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := readCableRows(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.ImportCableTypes(ctx, types)
				return finishCatalogImport(ctx, cmd, res, err, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) materialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "material",
		Short: "Manage the material catalog and its default units",
	}
	cmd.AddCommand(
		c.materialListCmd(),
		c.materialAddCmd(),
		c.materialEditCmd(),
		c.materialDeleteCmd(),
		c.materialImportCmd(),
	)
	return cmd
}

func (c *cli) materialListCmd() *cobra.Command {
	var (
		f       queryFlags
		grouped bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				out := cmd.OutOrStdout()
				if grouped {
					groups, err := svc.MaterialsByCategory(ctx)
					if err != nil {
						return err
					}
					if f.asJSON {
						return writeJSON(out, groups)
					}
					for _, g := range groups {
						fmt.Fprintf(out, "%s\n", g.Category)
						for _, m := range g.Materials {
							fmt.Fprintf(out, "  %s (%s)\n", m.Name, m.Unit)
						}
					}
					return nil
				}
				materials, err := svc.Materials(ctx, f.query())
				if err != nil {
					return err
				}
				if f.asJSON {
					return writeJSON(out, materials)
				}
				printMaterials(out, materials)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&grouped, "grouped", false, "group active materials by category")
	cmd.MarkFlagsMutuallyExclusive("grouped", "all")
	return cmd
}

func (c *cli) materialAddCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a material with its default unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				m, err := svc.AddMaterial(ctx, model.Material{
					Name:        args[0],
					Category:    f.category,
					Unit:        f.unit,
					Description: f.description,
					Active:      !f.inactive,
					SortOrder:   f.sortOrder,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added material %s (%s)\n", m.Name, m.Unit)
				return nil
			})
		},
	}
	f.register(cmd, false, true, false)
	return cmd
}

func (c *cli) materialEditCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				m, err := svc.UpdateMaterial(ctx, args[0], f.patch(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated material %s (%s, active %t)\n", m.Name, m.Unit, m.Active)
				return nil
			})
		},
	}
	f.register(cmd, false, true, true)
	return cmd
}

func (c *cli) materialDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a material from the catalog",
		Long: `Remove a material from the catalog. Recorded entries keep their material
name and unit; deactivating with "material edit --active=false" hides it instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.DeleteMaterial(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted material %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) materialImportCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add materials from a YAML or JSON file",
		Long: `Add materials from a YAML (.yaml, .yml) or JSON (.json) file holding a list of
rows with the fields name, category, unit, description, active and sort_order.
Known materials are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			materials, err := readMaterialRows(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.ImportMaterials(ctx, materials)
				return finishCatalogImport(ctx, cmd, res, err, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// finishCatalogImport prints what was imported even when the import stopped early.
func finishCatalogImport(ctx context.Context, cmd *cobra.Command, res service.CatalogImportResult, err error, asJSON bool) error {
	if err != nil {
		logger.Get().Error(ctx, "catalog import incomplete", logger.Error(err))
	}
	out := cmd.OutOrStdout()
	if asJSON {
		if werr := writeJSON(out, res); werr != nil {
			return werr
		}
		return err
	}
	fmt.Fprintf(out, "%d rows: %d added, %d existing, %d failed\n",
		res.Total, res.Added, res.Existing, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %s: %s\n", e.ID, e.Error)
	}
	return err
}

func printCableTypes(w io.Writer, types []model.CableType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCABLE TYPE\tTECHNICAL DATA\tACTIVE")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", t.Category, t.Name, t.TechnicalData, t.Active)
	}
	_ = tw.Flush()
}

func printMaterials(w io.Writer, materials []model.Material) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MATERIAL\tUNIT\tCATEGORY\tACTIVE")
	for _, m := range materials {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", m.Name, m.Unit, m.Category, m.Active)
	}
	_ = tw.Flush()
}
