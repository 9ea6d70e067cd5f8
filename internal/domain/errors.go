package domain

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors below wrap one of them so callers can
// match either the category or the exact cause with errors.Is.
var (
	// ErrValidation входные данные отклонены до любой записи
	ErrValidation = errors.New("validation error")

	// ErrNotFound сущность с указанным ID не существует
	ErrNotFound = errors.New("not found")

	// ErrMalformedSlotKey ключ слота не соответствует словарю день/час
	ErrMalformedSlotKey = errors.New("malformed slot key")

	// ErrMalformedRow сохранённая строка не декодируется в корректную сущность
	ErrMalformedRow = errors.New("malformed row")

	// ErrPartialCommit операция жизненного цикла прервалась между записями
	ErrPartialCommit = errors.New("partial commit")
)

var (
	ErrInvalidCapacity  = fmt.Errorf("%w: capacity must be positive", ErrValidation)
	ErrInvalidPartySize = fmt.Errorf("%w: party size must be positive", ErrValidation)
	ErrCapacityExceeded = fmt.Errorf("%w: party size exceeds table capacity", ErrValidation)
	ErrPartyTooLarge    = fmt.Errorf("%w: party size exceeds the maximum accepted party", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNameTooLong      = fmt.Errorf("%w: name is too long", ErrValidation)
	ErrInvalidID        = fmt.Errorf("%w: id must be positive", ErrValidation)

	ErrTableNotFound       = fmt.Errorf("table %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)

	// ErrSlotOccupied слот уже занят другой бронью
	ErrSlotOccupied = errors.New("slot is already occupied")

	// ErrInvalidTransition переход состояния брони недопустим
	ErrInvalidTransition = errors.New("invalid reservation state transition")
)
