// Package occupancy единственное место, где меняются флаги занятости календаря стола.
// Методы не открывают транзакцию сами: вызывающий use case выполняет их
// внутри своей транзакции и под блокировкой стола.
package occupancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
)

// Service сервис занятости слотов
type Service struct {
	tableRepo TableRepository
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр сервиса занятости
func NewService(tableRepo TableRepository, metrics Metrics, logger Logger) *Service {
	return &Service{
		tableRepo: tableRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// Occupy помечает слот брони занятым. Возвращает true, если флаг изменился
func (s *Service) Occupy(ctx context.Context, reservation *domain.Reservation) (bool, error) {
	return s.set(ctx, reservation, true)
}

// Release освобождает слот брони. Возвращает true, если флаг изменился
func (s *Service) Release(ctx context.Context, reservation *domain.Reservation) (bool, error) {
	return s.set(ctx, reservation, false)
}

// SetSlot выставляет явное значение флага слота стола
func (s *Service) SetSlot(ctx context.Context, tableID int64, slot domain.SlotKey, occupied bool) (bool, error) {
	table, err := s.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, tableRepo.ErrTableNotFound) {
			return false, fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, tableID)
		}
		return false, fmt.Errorf("%w: SetSlot - get table id=%d: %w", ErrInternal, tableID, err)
	}

	changed, err := table.Timetable.Set(slot, occupied)
	if err != nil {
		return false, err
	}

	if !changed {
		s.logger.Warn("SetSlot: table id=%d slot %s already occupied=%t", tableID, slot, occupied)
		return false, nil
	}

	if err := s.tableRepo.Update(ctx, table); err != nil {
		if errors.Is(err, tableRepo.ErrTableNotFound) {
			return false, fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, tableID)
		}
		return false, fmt.Errorf("%w: SetSlot - update table id=%d: %w", ErrInternal, tableID, err)
	}

	if s.metrics != nil {
		s.metrics.IncOccupancyChange(occupied)
	}
	s.logger.Info("SetSlot: table id=%d slot %s occupied=%t", tableID, slot, occupied)
	return true, nil
}

func (s *Service) set(ctx context.Context, reservation *domain.Reservation, occupied bool) (bool, error) {
	if reservation == nil {
		return false, fmt.Errorf("%w: reservation is nil", domain.ErrValidation)
	}
	return s.SetSlot(ctx, reservation.TableID, reservation.Slot, occupied)
}
