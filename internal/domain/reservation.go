package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReservationState is the lifecycle state of a reservation
type ReservationState string

const (
	StateDraft     ReservationState = "draft"
	StateActive    ReservationState = "active"
	StateRelocated ReservationState = "relocated"
	StateCancelled ReservationState = "cancelled"
)

// IsPersisted returns true for states that have a stored row
func (s ReservationState) IsPersisted() bool {
	return s == StateActive || s == StateRelocated
}

// CanTransition returns true if the lifecycle allows moving from s to next.
// Draft -> Active, Active|Relocated -> Relocated|Cancelled. Cancelled is terminal.
func (s ReservationState) CanTransition(next ReservationState) bool {
	switch s {
	case StateDraft:
		return next == StateActive
	case StateActive, StateRelocated:
		return next == StateRelocated || next == StateCancelled
	default:
		return false
	}
}

// Reservation binds a party to a table and a calendar slot.
// Only the table id is kept; occupancy changes go through the table itself.
type Reservation struct {
	ID        int64
	Name      string
	PartySize int
	Slot      SlotKey
	TableID   int64
	State     ReservationState
}

// ReservationRow is the persisted shape of a reservation
type ReservationRow struct {
	ID        int64
	Name      string
	PartySize int
	DateSlot  string
	TableID   int64
	State     string
}

// NewReservation validates a draft reservation against its table
func NewReservation(id int64, table *Table, partySize int, name string, slot SlotKey) (*Reservation, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}

	if partySize <= 0 {
		return nil, ErrInvalidPartySize
	}
	if partySize > table.Capacity {
		return nil, fmt.Errorf("%w: party of %d, table id=%d seats %d", ErrCapacityExceeded, partySize, table.ID, table.Capacity)
	}

	if err := slot.Validate(); err != nil {
		return nil, err
	}

	return &Reservation{
		ID:        id,
		Name:      name,
		PartySize: partySize,
		Slot:      slot,
		TableID:   table.ID,
		State:     StateDraft,
	}, nil
}

// LoadReservation rebuilds a reservation from its stored row
func LoadReservation(row ReservationRow) (*Reservation, error) {
	if row.ID <= 0 || row.TableID <= 0 {
		return nil, fmt.Errorf("%w: reservation id=%d table_id=%d", ErrMalformedRow, row.ID, row.TableID)
	}
	if row.PartySize <= 0 {
		return nil, fmt.Errorf("%w: reservation id=%d has party size %d", ErrMalformedRow, row.ID, row.PartySize)
	}

	slot, err := ParseSlotKey(row.DateSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation id=%d: %v", ErrMalformedRow, row.ID, err)
	}

	state := ReservationState(row.State)
	if !state.IsPersisted() {
		return nil, fmt.Errorf("%w: reservation id=%d has state %q", ErrMalformedRow, row.ID, row.State)
	}

	return &Reservation{
		ID:        row.ID,
		Name:      row.Name,
		PartySize: row.PartySize,
		Slot:      slot,
		TableID:   row.TableID,
		State:     state,
	}, nil
}

// Row converts the reservation into its stored shape
func (r *Reservation) Row() ReservationRow {
	return ReservationRow{
		ID:        r.ID,
		Name:      r.Name,
		PartySize: r.PartySize,
		DateSlot:  r.Slot.String(),
		TableID:   r.TableID,
		State:     string(r.State),
	}
}

// TransitionTo moves the reservation to the next lifecycle state
func (r *Reservation) TransitionTo(next ReservationState) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, next)
	}
	r.State = next
	return nil
}

// IsActive returns true while the reservation holds its slot
func (r *Reservation) IsActive() bool {
	return r.State.IsPersisted()
}
