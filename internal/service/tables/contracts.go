package tables

import (
	"context"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// TableRepository интерфейс репозитория столов
type TableRepository interface {
	Insert(ctx context.Context, table *domain.Table) error
	Update(ctx context.Context, table *domain.Table) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	List(ctx context.Context) ([]*domain.Table, error)
	MaxID(ctx context.Context) (int64, error)
}

// ReservationRepository интерфейс репозитория броней
type ReservationRepository interface {
	ListByTable(ctx context.Context, tableID int64) ([]*domain.Reservation, error)
	CountByTable(ctx context.Context, tableID int64) (int, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker сериализует изменения столов
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
