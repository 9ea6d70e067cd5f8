package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Timetable is the weekly occupancy calendar of a table.
// The fixed-size grid guarantees that every (weekday, hour) slot exists.
type Timetable struct {
	slots [DaysPerWeek][HoursPerDay]bool
}

// GenerateTimetable returns a timetable with every slot free
func GenerateTimetable() Timetable {
	return Timetable{}
}

func slotIndex(key SlotKey) (int, int, error) {
	if err := key.Validate(); err != nil {
		return 0, 0, err
	}
	day, _ := key.Day.index()
	return day, key.Hour - FirstHour, nil
}

// Occupied reports whether the slot is held by a reservation
func (t *Timetable) Occupied(key SlotKey) (bool, error) {
	day, hour, err := slotIndex(key)
	if err != nil {
		return false, err
	}
	return t.slots[day][hour], nil
}

// Set writes an explicit occupancy value and reports whether it changed
func (t *Timetable) Set(key SlotKey, occupied bool) (bool, error) {
	day, hour, err := slotIndex(key)
	if err != nil {
		return false, err
	}
	changed := t.slots[day][hour] != occupied
	t.slots[day][hour] = occupied
	return changed, nil
}

// Day returns hour -> occupied for one weekday
func (t *Timetable) Day(day Weekday) (map[int]bool, error) {
	idx, ok := day.index()
	if !ok {
		return nil, fmt.Errorf("%w: unknown weekday %q", ErrMalformedSlotKey, day)
	}

	hours := make(map[int]bool, HoursPerDay)
	for i, occupied := range t.slots[idx] {
		hours[FirstHour+i] = occupied
	}
	return hours, nil
}

// OccupiedSlots lists every occupied slot in timetable order
func (t *Timetable) OccupiedSlots() []SlotKey {
	keys := make([]SlotKey, 0)
	for d, hours := range t.slots {
		for h, occupied := range hours {
			if occupied {
				keys = append(keys, SlotKey{Day: Weekdays[d], Hour: FirstHour + h})
			}
		}
	}
	return keys
}

// Encode serializes the timetable as {"Monday":{"17":false,...},...}
func (t Timetable) Encode() (string, error) {
	doc := make(map[string]map[string]bool, DaysPerWeek)
	for d, hours := range t.slots {
		day := make(map[string]bool, HoursPerDay)
		for h, occupied := range hours {
			day[strconv.Itoa(FirstHour+h)] = occupied
		}
		doc[string(Weekdays[d])] = day
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode timetable: %w", err)
	}
	return string(data), nil
}

// DecodeTimetable parses the stored representation.
// The document must contain exactly the full weekday x hour grid of booleans.
func DecodeTimetable(s string) (Timetable, error) {
	var doc map[string]map[string]*bool
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return Timetable{}, fmt.Errorf("%w: occupancy is not valid json: %v", ErrMalformedRow, err)
	}

	if len(doc) != DaysPerWeek {
		return Timetable{}, fmt.Errorf("%w: occupancy has %d weekdays, want %d", ErrMalformedRow, len(doc), DaysPerWeek)
	}

	var t Timetable
	for d, weekday := range Weekdays {
		hours, ok := doc[string(weekday)]
		if !ok {
			return Timetable{}, fmt.Errorf("%w: occupancy is missing %s", ErrMalformedRow, weekday)
		}
		if len(hours) != HoursPerDay {
			return Timetable{}, fmt.Errorf("%w: %s has %d hours, want %d", ErrMalformedRow, weekday, len(hours), HoursPerDay)
		}
		for h := 0; h < HoursPerDay; h++ {
			occupied, ok := hours[strconv.Itoa(FirstHour+h)]
			if !ok {
				return Timetable{}, fmt.Errorf("%w: %s is missing hour %d", ErrMalformedRow, weekday, FirstHour+h)
			}
			if occupied == nil {
				return Timetable{}, fmt.Errorf("%w: %s hour %d is null", ErrMalformedRow, weekday, FirstHour+h)
			}
			t.slots[d][h] = *occupied
		}
	}

	return t, nil
}
