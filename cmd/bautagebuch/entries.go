package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	repository "github.com/okian/bautagebuch/internal/adapters/repository"
	service "github.com/okian/bautagebuch/internal/app"
	"github.com/okian/bautagebuch/internal/domain/duplicate"
	"github.com/okian/bautagebuch/internal/domain/model"
)

// entryFlags binds the fields of a measurement to command flags.
type entryFlags struct {
	id       string
	date     string
	location string
	room     string
	material string
	unit     string
	employee string
	quantity float64
	remarks  string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.date, "date", "", "measurement date, YYYY-MM-DD or DD.MM.YYYY (default today)")
	fs.StringVarP(&f.location, "location", "l", "", "location, e.g. Erdgeschoss")
	fs.StringVar(&f.room, "room", "", "room number")
	fs.StringVarP(&f.material, "material", "m", "", "material or work item")
	fs.StringVarP(&f.unit, "unit", "u", "", "unit, e.g. m²")
	fs.StringVarP(&f.employee, "employee", "e", "", "employee name")
	fs.Float64VarP(&f.quantity, "quantity", "q", 0, "measured quantity")
	fs.StringVar(&f.remarks, "remarks", "", "free text remarks")
}

func (f *entryFlags) entry() (model.MeasurementEntry, error) {
	date := time.Now()
	if f.date != "" {
		d, err := parseDate(f.date)
		if err != nil {
			return model.MeasurementEntry{}, err
		}
		date = d
	}
	return model.MeasurementEntry{
		ID:           f.id,
		Date:         date,
		Location:     f.location,
		RoomNumber:   f.room,
		MaterialName: f.material,
		Unit:         f.unit,
		EmployeeName: f.employee,
		Quantity:     f.quantity,
		Remarks:      f.remarks,
	}, nil
}

func (c *cli) recordCmd() *cobra.Command {
	var (
		f      entryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "record",
		Short:   "Record a measurement and its logbook line",
		Example: `  bautagebuch record --date 2024-01-15 -l Erdgeschoss -m Putz -u m² -e "Max Müller" -q 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := f.entry()
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Record(ctx, e)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, res)
				}
				fmt.Fprintf(out, "recorded %s\n%s\n", res.Entry.ID, res.Logbook.Text)
				if len(res.Warnings) > 0 {
					fmt.Fprintf(out, "\nwarning: %d similar entries on the same day\n", len(res.Warnings))
					printMatches(out, res.Warnings)
				}
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.id, "id", "", "entry id (default generated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	var (
		f      entryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Look for existing entries resembling an unsaved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := f.entry()
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				matches, err := svc.Check(ctx, e)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, matches)
				}
				if len(matches) == 0 {
					fmt.Fprintln(out, "no similar entries")
					return nil
				}
				printMatches(out, matches)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var (
		q        repository.Query
		from, to string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if from != "" {
				if q.From, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if q.To, err = parseDate(to); err != nil {
					return err
				}
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				entries, err := svc.List(ctx, q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, entries)
				}
				printEntries(out, entries)
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&q.Location, "location", "l", "", "location contains")
	fs.StringVarP(&q.Material, "material", "m", "", "material contains")
	fs.StringVar(&from, "from", "", "first day")
	fs.StringVar(&to, "to", "", "last day")
	fs.IntVarP(&q.Limit, "limit", "n", 0, "maximum entries (0 = all)")
	fs.BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry reported as duplicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.DeleteDuplicate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Mark an entry as reviewed and not a duplicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.ConfirmNotDuplicate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "confirmed %s\n", args[0])
				return nil
			})
		},
	}
}

func printEntries(w io.Writer, entries []model.MeasurementEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tLOCATION\tMATERIAL\tQUANTITY\tEMPLOYEE\tCHECKED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g %s\t%s\t%t\n",
			e.ID, formatDay(e.Date), e.Location, e.MaterialName, e.Quantity, e.Unit, e.EmployeeName, e.DuplicateChecked)
	}
	_ = tw.Flush()
}

func printMatches(w io.Writer, matches []duplicate.Match) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tDATE\tLOCATION\tMATERIAL\tQUANTITY\tEMPLOYEE")
	for _, m := range matches {
		e := m.Entry
		fmt.Fprintf(tw, "%.0f%%\t%s\t%s\t%s\t%s\t%g %s\t%s\n",
			m.Score*100, e.ID, formatDay(e.Date), e.Location, e.MaterialName, e.Quantity, e.Unit, e.EmployeeName)
	}
	_ = tw.Flush()
}
