package tables

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

var (
	// ErrCapacityBelowParty новая вместимость меньше размера уже забронированной компании
	ErrCapacityBelowParty = fmt.Errorf("%w: capacity is below an existing reservation party", domain.ErrValidation)

	// ErrTableInUse стол нельзя удалить, пока на него есть брони
	ErrTableInUse = errors.New("table has reservations")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("tables: internal error")
)
