package cli

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	"github.com/m04kA/SMC-TableBookingService/internal/selection"
	"github.com/m04kA/SMC-TableBookingService/internal/service/tables"
	cancelReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/cancel_reservation"
	relocateReservationUC "github.com/m04kA/SMC-TableBookingService/internal/usecase/relocate_reservation"
	"github.com/m04kA/SMC-TableBookingService/pkg/locker"
)

// ErrUsage неверные аргументы командной строки
var ErrUsage = errors.New("usage error")

// Коды завершения процесса
const (
	ExitOK            = 0
	ExitInternal      = 1
	ExitUsage         = 2
	ExitRejected      = 3
	ExitNotFound      = 4
	ExitConflict      = 5
	ExitPartialCommit = 6
	ExitAborted       = 7
)

// ExitCode код завершения для ошибки команды
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, domain.ErrPartialCommit):
		return ExitPartialCommit
	case errors.Is(err, selection.ErrAborted), errors.Is(err, selection.ErrTooManyAttempts):
		return ExitAborted
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrSlotOccupied),
		errors.Is(err, tables.ErrTableInUse),
		errors.Is(err, relocateReservationUC.ErrConcurrentModification),
		errors.Is(err, cancelReservationUC.ErrConcurrentModification),
		errors.Is(err, locker.ErrLockTimeout):
		return ExitConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMalformedSlotKey),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, selection.ErrNoOptions):
		return ExitRejected
	default:
		return ExitInternal
	}
}

// Message сообщение об ошибке для пользователя
func Message(err error) string {
	var pc *domain.PartialCommitError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pc):
		if pc.RolledBack {
			return fmt.Sprintf("%s failed at %q and was rolled back (incident %s): %v", pc.Operation, pc.Step, pc.IncidentID, pc.Err)
		}
		return fmt.Sprintf("%s failed at %q and left reservation %d inconsistent (incident %s), run \"reconcile -repair\": %v",
			pc.Operation, pc.Step, pc.ReservationID, pc.IncidentID, pc.Err)
	case errors.Is(err, selection.ErrAborted):
		return "cancelled, nothing was saved"
	case errors.Is(err, selection.ErrTooManyAttempts):
		return "too many invalid answers, nothing was saved"
	case errors.Is(err, locker.ErrLockTimeout):
		return "the table is busy with another operation, try again"
	default:
		return err.Error()
	}
}
