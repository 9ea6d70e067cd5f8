package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a weekday name as used in slot keys and the stored timetable
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the calendar days in timetable order
var Weekdays = [DaysPerWeek]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// index returns the position of the weekday in Weekdays
func (d Weekday) index() (int, bool) {
	for i, w := range Weekdays {
		if w == d {
			return i, true
		}
	}
	return 0, false
}

// IsValid returns true if the weekday is one of the seven known names
func (d Weekday) IsValid() bool {
	_, ok := d.index()
	return ok
}

// ParseWeekday validates a weekday name
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.TrimSpace(s))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: unknown weekday %q", ErrMalformedSlotKey, s)
	}
	return d, nil
}

// WeekdayOf returns the weekday of the given date
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday starts on Sunday, the timetable starts on Monday
	return Weekdays[(int(t.Weekday())+6)%DaysPerWeek]
}

// Hours returns the bookable hours of a day in ascending order
func Hours() []int {
	hours := make([]int, 0, HoursPerDay)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// IsValidHour returns true if the hour is one of the timetable hours
func IsValidHour(hour int) bool {
	return hour >= FirstHour && hour <= LastHour
}

// SlotKey identifies a single (weekday, hour) cell of a timetable
type SlotKey struct {
	Day  Weekday
	Hour int
}

// NewSlotKey builds a validated slot key
func NewSlotKey(day Weekday, hour int) (SlotKey, error) {
	key := SlotKey{Day: day, Hour: hour}
	if err := key.Validate(); err != nil {
		return SlotKey{}, err
	}
	return key, nil
}

// ParseSlotKey parses a "<Weekday>_<hour>" key
func ParseSlotKey(s string) (SlotKey, error) {
	day, hourStr, found := strings.Cut(strings.TrimSpace(s), SlotKeySeparator)
	if !found {
		return SlotKey{}, fmt.Errorf("%w: %q has no separator", ErrMalformedSlotKey, s)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q has a non-numeric hour", ErrMalformedSlotKey, s)
	}
	// Only the canonical spelling is a key: no sign, no leading zeros
	if strconv.Itoa(hour) != hourStr {
		return SlotKey{}, fmt.Errorf("%w: %q has a non-canonical hour", ErrMalformedSlotKey, s)
	}

	return NewSlotKey(Weekday(day), hour)
}

// Validate checks the key against the fixed weekday/hour vocabulary
func (k SlotKey) Validate() error {
	if !k.Day.IsValid() {
		return fmt.Errorf("%w: unknown weekday %q", ErrMalformedSlotKey, k.Day)
	}
	if !IsValidHour(k.Hour) {
		return fmt.Errorf("%w: hour %d outside %d..%d", ErrMalformedSlotKey, k.Hour, FirstHour, LastHour)
	}
	return nil
}

// String formats the key as "<Weekday>_<hour>"
func (k SlotKey) String() string {
	return string(k.Day) + SlotKeySeparator + strconv.Itoa(k.Hour)
}

// IsZero returns true if the key was never set
func (k SlotKey) IsZero() bool {
	return k.Day == "" && k.Hour == 0
}
