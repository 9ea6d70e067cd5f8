package domain

import "strconv"

// Lock keys. Every lifecycle operation holds the keys of the tables it
// touches for its whole read-check-write sequence.
const (
	// ReservationIDLockKey serializes reservation id allocation
	ReservationIDLockKey = "reservation:id"
	// TableIDLockKey serializes table id allocation
	TableIDLockKey = "table:id"
)

// TableLockKey returns the lock key of one table
func TableLockKey(id int64) string {
	return "table:" + strconv.FormatInt(id, 10)
}
