package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/bautagebuch/internal/app"
)

func (c *cli) weeksCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "List calendar weeks with logbook entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				weeks, err := svc.Weeks(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, weeks)
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "YEAR\tKW\tENTRIES")
				for _, w := range weeks {
					fmt.Fprintf(tw, "%d\t%d\t%d\n", w.Year, w.Week, w.Count)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) weekCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "week <year> <week>",
		Short:   "Print the logbook report of one ISO calendar week",
		Example: "  bautagebuch week 2024 3",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			week, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid week %q", args[1])
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				r, err := svc.WeeklyReport(ctx, year, week)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, r)
				}
				fmt.Fprintf(out, "Bautagebuch KW %d/%d (%s - %s)\n\n", r.Week, r.Year, formatDay(r.Monday), formatDay(r.Friday))
				for _, le := range r.Entries {
					fmt.Fprintln(out, le.Text)
				}
				fmt.Fprintf(out, "\n%d entries, %d employees, %d locations, %d materials\n",
					r.Stats.Entries, r.Stats.Employees, r.Stats.Locations, r.Stats.Materials)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
