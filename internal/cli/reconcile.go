package cli

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/scheduler"
	reconcileOccupancyUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/reconcile_occupancy"
)

func (c *CLI) reconcile(ctx context.Context, args []string) error {
	cfg := c.app.Config.Reconcile

	fs := c.newFlagSet("reconcile")
	repair := fs.Bool("repair", cfg.Repair, "rewrite calendars to match reservations")
	every := fs.Bool("every", false, "keep running on the configured schedule")
	schedule := fs.String("schedule", cfg.Schedule, "cron spec used with -every")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		return c.reconcileOnce(ctx, *repair)
	}

	if !*every {
		return run(ctx)
	}

	s := scheduler.New(c.app.Logger)
	if err := s.Add(ctx, "reconcile", *schedule, run); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	fmt.Fprintf(c.out, "Reconciling on schedule %q, press Ctrl+C to stop\n", *schedule)
	s.Run(ctx)
	return nil
}

func (c *CLI) reconcileOnce(ctx context.Context, repair bool) error {
	resp, err := c.app.ReconcileOccupancy.Execute(ctx, &reconcileOccupancyUC.Request{Repair: repair})
	if err != nil {
		return err
	}

	if resp.Consistent() {
		fmt.Fprintf(c.out, "Consistent: %d tables, %d reservations\n", resp.Tables, resp.Reservations)
		return nil
	}

	w := c.table()
	fmt.Fprintln(w, "KIND\tTABLE\tSLOT\tRESERVATIONS\tREPAIRED")
	for _, d := range resp.Discrepancies {
		fmt.Fprintf(w, "%s\t%d\t%s\t%v\t%t\n", d.Kind, d.TableID, d.Slot, d.ReservationIDs, d.Repaired)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Found %d discrepancies in %d tables and %d reservations\n",
		len(resp.Discrepancies), resp.Tables, resp.Reservations)
	return nil
}
