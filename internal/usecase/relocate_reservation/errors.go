package relocate_reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("relocate_reservation: %w", domain.ErrValidation)

	// ErrNothingToChange новый слот и стол совпадают с текущими
	ErrNothingToChange = fmt.Errorf("%w: reservation already holds this table and slot", ErrInvalidInput)

	// ErrConcurrentModification бронь перенесли на другой стол, пока ждали блокировку
	ErrConcurrentModification = errors.New("relocate_reservation: reservation changed concurrently, retry")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("relocate_reservation: internal error")
)
