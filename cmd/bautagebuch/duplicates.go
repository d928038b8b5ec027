package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/domain/duplicate"
)

func (c *cli) duplicatesCmd() *cobra.Command {
	var (
		minRisk string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Scan all unreviewed entries for duplicates",
		Long: `Scan all active entries that were not confirmed as distinct and print
the duplicate groups, highest risk first.

Risk tiers:
  high    same day, location, material and employee
  medium  same day, location and material
  low     similar above the threshold otherwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			floor, ok := duplicate.ParseRiskTier(minRisk)
			if !ok || floor == duplicate.RiskNone {
				return fmt.Errorf("invalid --min-risk %q, use low, medium or high", minRisk)
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				report, err := svc.Duplicates(ctx)
				if err != nil {
					return err
				}
				report.Groups = duplicate.FilterMinRisk(report.Groups, floor)
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, report)
				}
				printReport(out, report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&minRisk, "min-risk", duplicate.RiskLow.String(), "lowest risk tier to show: low, medium, high")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printReport(w io.Writer, r service.Report) {
	fmt.Fprintf(w, "scanned %d entries at threshold %.0f%%: %d groups (high %d, medium %d, low %d)\n",
		r.Scanned, r.Threshold*100, r.Summary.Total, r.Summary.High, r.Summary.Medium, r.Summary.Low)
	for _, g := range r.Groups {
		p := g.Primary
		fmt.Fprintf(w, "\n[%s] %s  %s  %s  %s  %g %s  %s\n",
			g.Risk, p.ID, formatDay(p.Date), p.Location, p.MaterialName, p.Quantity, p.Unit, p.EmployeeName)
		printMatches(w, g.Similar)
	}
}
