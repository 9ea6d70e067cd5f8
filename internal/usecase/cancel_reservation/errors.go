package cancel_reservation

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("cancel_reservation: %w", domain.ErrValidation)

	// ErrConcurrentModification бронь перенесли на другой стол, пока ждали блокировку
	ErrConcurrentModification = errors.New("cancel_reservation: reservation changed concurrently, retry")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_reservation: internal error")
)
