package domain

import "errors"

// Outcome classifies an operation error for metric labels
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPartialCommit):
		return "partial_commit"
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedSlotKey),
		errors.Is(err, ErrSlotOccupied),
		errors.Is(err, ErrInvalidTransition):
		return "rejected"
	default:
		return "error"
	}
}
