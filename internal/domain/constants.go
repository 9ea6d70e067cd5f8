package domain

// Timetable grid: every table has one slot per weekday and hour in
// [FirstHour, LastHour].
const (
	FirstHour   = 17
	LastHour    = 22
	HoursPerDay = LastHour - FirstHour + 1
	DaysPerWeek = 7
)

// Business validation constants
const (
	DefaultMaxPartySize = 8
	MaxNameLength       = 120
)

// SlotKeySeparator separates weekday and hour in a date-slot key ("Monday_18").
const SlotKeySeparator = "_"
