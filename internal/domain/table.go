package domain

import "fmt"

// Table is a restaurant table with its weekly occupancy calendar
type Table struct {
	ID        int64
	Capacity  int
	Timetable Timetable
}

// TableRow is the persisted shape of a table
type TableRow struct {
	ID        int64
	Capacity  int
	Occupancy string
}

// NewTable creates an unpersisted table with an all-free timetable
func NewTable(id int64, capacity int) (*Table, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Table{
		ID:        id,
		Capacity:  capacity,
		Timetable: GenerateTimetable(),
	}, nil
}

// LoadTable rebuilds a table from its stored row
func LoadTable(row TableRow) (*Table, error) {
	if row.ID <= 0 {
		return nil, fmt.Errorf("%w: table id %d", ErrMalformedRow, row.ID)
	}
	if row.Capacity <= 0 {
		return nil, fmt.Errorf("%w: table id=%d has capacity %d", ErrMalformedRow, row.ID, row.Capacity)
	}

	timetable, err := DecodeTimetable(row.Occupancy)
	if err != nil {
		return nil, fmt.Errorf("table id=%d: %w", row.ID, err)
	}

	return &Table{
		ID:        row.ID,
		Capacity:  row.Capacity,
		Timetable: timetable,
	}, nil
}

// Row converts the table into its stored shape
func (t *Table) Row() (TableRow, error) {
	occupancy, err := t.Timetable.Encode()
	if err != nil {
		return TableRow{}, err
	}

	return TableRow{
		ID:        t.ID,
		Capacity:  t.Capacity,
		Occupancy: occupancy,
	}, nil
}

// CanSeat returns true if a party of the given size fits the table
func (t *Table) CanSeat(partySize int) bool {
	return partySize > 0 && partySize <= t.Capacity
}
