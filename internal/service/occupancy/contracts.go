package occupancy

import (
	"context"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// TableRepository интерфейс репозитория столов
type TableRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Table, error)
	Update(ctx context.Context, table *domain.Table) error
}

// Metrics учёт изменений занятости
type Metrics interface {
	IncOccupancyChange(occupied bool)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
