package reconcile_occupancy

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reconcile_occupancy: internal error")
)
