package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/pkg/logger"
)

func (c *cli) importCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Record measurements from a YAML or JSON file",
		Long: `Record measurements from a YAML (.yaml, .yml) or JSON (.json) file holding a
list of rows with the fields id, date, location, room_number, material, unit,
employee, quantity and remarks. Rows repeating a known id count as duplicates;
invalid rows are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readRows(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Import(ctx, entries)
				if err != nil {
					logger.Get().Error(ctx, "import incomplete", logger.Error(err))
				}
				out := cmd.OutOrStdout()
				if asJSON {
					if werr := writeJSON(out, res); werr != nil {
						return werr
					}
					return err
				}
				printImport(cmd, res)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printImport(cmd *cobra.Command, res service.ImportResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rows: %d recorded, %d duplicates, %d failed\n",
		res.Total, res.Recorded, res.Duplicates, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %s: %s\n", e.ID, e.Error)
	}
}
