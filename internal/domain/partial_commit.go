package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// PartialCommitError reports a lifecycle operation that failed after its
// first write. When RolledBack is false the calendar and the reservation
// rows may disagree until reconciled.
type PartialCommitError struct {
	Operation     string
	ReservationID int64
	Step          string
	IncidentID    string
	RolledBack    bool
	Err           error
}

// NewPartialCommitError records a failure at the given step with a fresh
// incident id. RolledBack is filled in once the transaction outcome is known.
func NewPartialCommitError(operation string, reservationID int64, step string, err error) *PartialCommitError {
	return &PartialCommitError{
		Operation:     operation,
		ReservationID: reservationID,
		Step:          step,
		IncidentID:    uuid.NewString(),
		Err:           err,
	}
}

func (e *PartialCommitError) Error() string {
	state := "rolled back"
	if !e.RolledBack {
		state = "NOT rolled back, reconcile required"
	}
	return fmt.Sprintf("%s: %s reservation id=%d failed at %q (%s, incident=%s): %v",
		ErrPartialCommit, e.Operation, e.ReservationID, e.Step, state, e.IncidentID, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPartialCommit) match
func (e *PartialCommitError) Is(target error) bool {
	return target == ErrPartialCommit
}
