package occupancy

import "errors"

// ErrInternal возвращается при ошибках хранилища
var ErrInternal = errors.New("occupancy: internal error")
