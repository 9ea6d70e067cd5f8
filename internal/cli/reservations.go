package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	"github.com/m04kA/SMC-TableBookingService/internal/selection"
	cancelReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/create_reservation"
	relocateReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/relocate_reservation"
	"github.com/m04kA/SMC-TableBookingService/pkg/ptr"
)

// book создает бронь. Недостающие значения запрашиваются интерактивно,
// запись происходит только после того, как выбраны все значения
func (c *CLI) book(ctx context.Context, args []string) error {
	fs := c.newFlagSet("book")
	name := fs.String("name", "", "guest name")
	party := fs.Int("party", 0, "party size")
	tableID := fs.Int64("table", 0, "table id")
	slot := fs.String("slot", "", "slot key, e.g. Monday_18")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	req := &createReservationUC.Request{
		Name:      *name,
		PartySize: *party,
		TableID:   *tableID,
		Slot:      *slot,
	}

	if err := c.completeBooking(ctx, req); err != nil {
		return err
	}

	resp, err := c.app.CreateReservation.Execute(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Reservation %d: %s, party of %d, table %d at %s\n",
		resp.ID, resp.Name, resp.PartySize, resp.TableID, resp.Slot)
	return nil
}

func (c *CLI) completeBooking(ctx context.Context, req *createReservationUC.Request) error {
	var err error

	if strings.TrimSpace(req.Name) == "" {
		req.Name, err = c.selector.Ask(ctx, "Please input your name:", validateName)
		if err != nil {
			return err
		}
	}

	if req.PartySize == 0 {
		maxParty := c.app.Config.Booking.MaxPartySize
		answer, err := c.selector.Ask(ctx, fmt.Sprintf("Party size (1-%d):", maxParty), func(s string) error {
			_, err := parsePartySize(s, maxParty)
			return err
		})
		if err != nil {
			return err
		}
		req.PartySize, _ = parsePartySize(answer, maxParty)
	}

	if req.TableID != 0 && req.Slot != "" {
		return nil
	}

	date, err := c.selector.Choose(ctx, "Date of your reservation:", selection.DateOptions(c.now()))
	if err != nil {
		return err
	}

	candidates, err := c.app.Availability.Candidates(ctx, req.PartySize, domain.Weekday(date.Value))
	if err != nil {
		return err
	}

	options := make([]selection.Option, 0, len(candidates))
	for _, cand := range candidates {
		if req.TableID != 0 && cand.TableID != req.TableID {
			continue
		}
		options = append(options, selection.Option{
			Label:    fmt.Sprintf("Table %d (%d seats) at %d:00", cand.TableID, cand.Capacity, cand.Slot.Hour),
			Value:    strconv.FormatInt(cand.TableID, 10) + " " + cand.Slot.String(),
			Disabled: cand.Occupied,
			Reason:   "occupied",
		})
	}

	chosen, err := c.selector.Choose(ctx, "Table and time:", options)
	if err != nil {
		return err
	}

	idStr, slotKey, _ := strings.Cut(chosen.Value, " ")
	req.TableID, err = strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("unexpected option value %q: %w", chosen.Value, err)
	}
	req.Slot = slotKey
	return nil
}

func (c *CLI) reservations(ctx context.Context, args []string) error {
	sub, rest, err := subcommand("reservations", args)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		fs := c.newFlagSet("reservations list")
		tableID := fs.Int64("table", 0, "only reservations of this table")
		if err := c.parse(fs, rest); err != nil {
			return err
		}

		var list []*domain.Reservation
		if *tableID != 0 {
			list, err = c.app.Reservations.ListByTable(ctx, *tableID)
		} else {
			list, err = c.app.Reservations.List(ctx)
		}
		if err != nil {
			return err
		}

		w := c.table()
		fmt.Fprintln(w, "ID\tNAME\tPARTY\tTABLE\tSLOT\tSTATE")
		for _, r := range list {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", r.ID, r.Name, r.PartySize, r.TableID, r.Slot, r.State)
		}
		return w.Flush()

	case "move":
		fs := c.newFlagSet("reservations move")
		id := fs.Int64("id", 0, "reservation id")
		slot := optionalString(fs, "slot", "new slot key, e.g. Tuesday_19")
		tableID := optionalInt64(fs, "table", "new table id")
		if err := c.parse(fs, rest); err != nil {
			return err
		}

		resp, err := c.app.RelocateReservation.Execute(ctx, &relocateReservationUC.Request{
			ReservationID: *id,
			NewSlot:       slot(),
			NewTableID:    tableID(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Reservation %d moved from table %d at %s to table %d at %s\n",
			resp.ID, resp.OldTableID, resp.OldSlot, resp.TableID, resp.Slot)
		return nil

	case "cancel":
		fs := c.newFlagSet("reservations cancel")
		id := fs.Int64("id", 0, "reservation id")
		if err := c.parse(fs, rest); err != nil {
			return err
		}

		resp, err := c.app.CancelReservation.Execute(ctx, &cancelReservationUC.Request{ReservationID: *id})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Reservation %d cancelled, table %d at %s is free\n", resp.ID, resp.TableID, resp.Slot)
		return nil

	default:
		return fmt.Errorf("%w: unknown reservations subcommand %q", ErrUsage, sub)
	}
}

// optionalString флаг, отличающий "не задан" от пустого значения
func optionalString(fs *flag.FlagSet, name, usage string) func() *string {
	var (
		value string
		set   bool
	)
	fs.Func(name, usage, func(s string) error {
		value, set = s, true
		return nil
	})
	return func() *string {
		if !set {
			return nil
		}
		return ptr.Ptr(value)
	}
}

func optionalInt64(fs *flag.FlagSet, name, usage string) func() *int64 {
	var (
		value int64
		set   bool
	)
	fs.Func(name, usage, func(s string) error {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		value, set = n, true
		return nil
	})
	return func() *int64 {
		if !set {
			return nil
		}
		return ptr.Ptr(value)
	}
}

func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.ErrEmptyName
	}
	if utf8.RuneCountInString(s) > domain.MaxNameLength {
		return domain.ErrNameTooLong
	}
	return nil
}

func parsePartySize(s string, maxParty int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("please input a valid number")
	}
	if n <= 0 {
		return 0, domain.ErrInvalidPartySize
	}
	if n > maxParty {
		return 0, fmt.Errorf("%w: at most %d guests", domain.ErrPartyTooLarge, maxParty)
	}
	return n, nil
}

// parseDay принимает день недели без учета регистра
func parseDay(s string) (domain.Weekday, error) {
	for _, d := range domain.Weekdays {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown weekday %q", domain.ErrMalformedSlotKey, s)
}
