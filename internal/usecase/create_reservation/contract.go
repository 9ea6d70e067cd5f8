package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// TableRepository интерфейс репозитория столов
type TableRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
}

// ReservationRepository интерфейс репозитория броней
type ReservationRepository interface {
	Insert(ctx context.Context, reservation *domain.Reservation) error
	GetBySlot(ctx context.Context, tableID int64, slot domain.SlotKey) (*domain.Reservation, error)
	MaxID(ctx context.Context) (int64, error)
}

// OccupancyService единственная точка изменения занятости слотов
type OccupancyService interface {
	Occupy(ctx context.Context, reservation *domain.Reservation) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker сериализует операции над столами
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// Metrics учёт операций
type Metrics interface {
	ObserveOperation(operation, result string, duration time.Duration)
	IncPartialCommit(operation string, rolledBack bool)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
