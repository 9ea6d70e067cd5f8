package reconcile_occupancy

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// TableRepository интерфейс репозитория столов
type TableRepository interface {
	List(ctx context.Context) ([]*domain.Table, error)
}

// ReservationRepository интерфейс репозитория броней
type ReservationRepository interface {
	List(ctx context.Context) ([]*domain.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// OccupancyService единственная точка изменения занятости слотов
type OccupancyService interface {
	SetSlot(ctx context.Context, tableID int64, slot domain.SlotKey, occupied bool) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker сериализует операции над столами
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// Metrics учёт операций и расхождений
type Metrics interface {
	ObserveOperation(operation, result string, duration time.Duration)
	SetDiscrepancies(kind string, count int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
