package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/seed"
)

func (c *cli) seedCmd() *cobra.Command {
	var (
		cfg   seed.Config
		until string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate sample measurements with planted duplicates",
		Long: `Generate sample measurements. A share of them repeats earlier entries the
way double submissions happen on site. Without --out the entries are
recorded; with --out they are written to a YAML or JSON file for import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Until = time.Now()
			if until != "" {
				d, err := parseDate(until)
				if err != nil {
					return err
				}
				cfg.Until = d
			}
			if !cmd.Flags().Changed("seed") {
				cfg.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // sample data
			}
			entries, stats, err := seed.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if out != "" {
				if err := writeRows(out, entries); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries (%d planted copies) to %s\n", stats.Generated, stats.Planted, out)
				return nil
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Import(ctx, entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "generated %d entries (%d planted copies)\n", stats.Generated, stats.Planted)
				printImport(cmd, res)
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&cfg.Entries, "entries", "n", seed.DefaultEntries, "number of entries")
	fs.Float64Var(&cfg.DuplicateRate, "duplicate-rate", seed.DefaultDuplicateRate, "share of planted copies, 0 to 1")
	fs.IntVar(&cfg.Days, "days", seed.DefaultDays, "spread of entry dates in days")
	fs.StringVar(&until, "until", "", "last entry date (default today)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "random seed (default time based)")
	fs.StringVarP(&out, "out", "o", "", "write to this .yaml or .json file instead of recording")
	return cmd
}
