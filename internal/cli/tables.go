package cli

import (
	"context"
	"fmt"
	"strings"
)

func (c *CLI) tables(ctx context.Context, args []string) error {
	sub, rest, err := subcommand("tables", args)
	if err != nil {
		return err
	}

	switch sub {
	case "add":
		fs := c.newFlagSet("tables add")
		capacity := fs.Int("capacity", 0, "number of seats")
		if err := c.parse(fs, rest); err != nil {
			return err
		}
		table, err := c.app.Tables.Create(ctx, *capacity)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Added table %d with %d seats\n", table.ID, table.Capacity)
		return nil

	case "list":
		if err := c.parse(c.newFlagSet("tables list"), rest); err != nil {
			return err
		}
		list, err := c.app.Tables.List(ctx)
		if err != nil {
			return err
		}
		w := c.table()
		fmt.Fprintln(w, "ID\tCAPACITY\tOCCUPIED SLOTS")
		for _, table := range list {
			slots := table.Timetable.OccupiedSlots()
			names := make([]string, 0, len(slots))
			for _, s := range slots {
				names = append(names, s.String())
			}
			fmt.Fprintf(w, "%d\t%d\t%s\n", table.ID, table.Capacity, strings.Join(names, " "))
		}
		return w.Flush()

	case "capacity":
		fs := c.newFlagSet("tables capacity")
		id := fs.Int64("id", 0, "table id")
		capacity := fs.Int("capacity", 0, "new number of seats")
		if err := c.parse(fs, rest); err != nil {
			return err
		}
		table, err := c.app.Tables.UpdateCapacity(ctx, *id, *capacity)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Table %d now has %d seats\n", table.ID, table.Capacity)
		return nil

	case "remove":
		fs := c.newFlagSet("tables remove")
		id := fs.Int64("id", 0, "table id")
		if err := c.parse(fs, rest); err != nil {
			return err
		}
		if err := c.app.Tables.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Removed table %d\n", *id)
		return nil

	default:
		return fmt.Errorf("%w: unknown tables subcommand %q", ErrUsage, sub)
	}
}

func (c *CLI) availability(ctx context.Context, args []string) error {
	fs := c.newFlagSet("availability")
	capacity := fs.Int("capacity", 0, "exact number of seats")
	day := fs.String("day", "", "weekday, e.g. Monday")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	weekday, err := parseDay(*day)
	if err != nil {
		return err
	}

	openings, err := c.app.Availability.Openings(ctx, *capacity, weekday)
	if err != nil {
		return err
	}
	if len(openings) == 0 {
		fmt.Fprintf(c.out, "No free slots for %d seats on %s\n", *capacity, weekday)
		return nil
	}

	w := c.table()
	fmt.Fprintln(w, "TABLE\tCAPACITY\tSLOT")
	for _, o := range openings {
		fmt.Fprintf(w, "%d\t%d\t%s\n", o.TableID, o.Capacity, o.Slot)
	}
	return w.Flush()
}
