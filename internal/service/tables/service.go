package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
)

// Service сервис управления столами
type Service struct {
	tableRepo       TableRepository
	reservationRepo ReservationRepository
	txManager       TransactionManager
	locker          Locker
	logger          Logger
}

// NewService создает новый экземпляр сервиса столов
func NewService(
	tableRepo TableRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	locker Locker,
	logger Logger,
) *Service {
	return &Service{
		tableRepo:       tableRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		locker:          locker,
		logger:          logger,
	}
}

// Create добавляет стол со свободным календарем
// ID выделяется внутри той же транзакции, что и вставка
func (s *Service) Create(ctx context.Context, capacity int) (*domain.Table, error) {
	s.logger.Info("Create: adding table with capacity=%d", capacity)

	if capacity <= 0 {
		s.logger.Warn("Create: invalid capacity=%d", capacity)
		return nil, domain.ErrInvalidCapacity
	}

	unlock, err := s.locker.Lock(ctx, domain.TableIDLockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - lock: %w", ErrInternal, err)
	}
	defer unlock()

	var created *domain.Table
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		maxID, err := s.tableRepo.MaxID(ctx)
		if err != nil {
			return fmt.Errorf("%w: Create - max id: %w", ErrInternal, err)
		}

		table, err := domain.NewTable(domain.NextID(maxID), capacity)
		if err != nil {
			return err
		}

		if err := s.tableRepo.Insert(ctx, table); err != nil {
			return fmt.Errorf("%w: Create - insert table id=%d: %w", ErrInternal, table.ID, err)
		}

		created = table
		return nil
	})
	if err != nil {
		s.logger.Error("Create: failed to add table: %v", err)
		return nil, err
	}

	s.logger.Info("Create: added table id=%d capacity=%d", created.ID, created.Capacity)
	return created, nil
}

// GetByID получает стол по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Table, error) {
	table, err := s.tableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("GetByID", id, err)
	}
	return table, nil
}

// List возвращает все столы
func (s *Service) List(ctx context.Context) ([]*domain.Table, error) {
	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %w", ErrInternal, err)
	}
	return tables, nil
}

// UpdateCapacity меняет вместимость стола
// Вместимость не может стать меньше компании любой существующей брони
func (s *Service) UpdateCapacity(ctx context.Context, id int64, capacity int) (*domain.Table, error) {
	s.logger.Info("UpdateCapacity: table id=%d capacity=%d", id, capacity)

	if capacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}

	unlock, err := s.locker.Lock(ctx, domain.TableLockKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: UpdateCapacity - lock: %w", ErrInternal, err)
	}
	defer unlock()

	var updated *domain.Table
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		table, err := s.tableRepo.GetByID(ctx, id)
		if err != nil {
			return s.mapRepoError("UpdateCapacity", id, err)
		}

		reservations, err := s.reservationRepo.ListByTable(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: UpdateCapacity - list reservations: %w", ErrInternal, err)
		}
		for _, r := range reservations {
			if r.PartySize > capacity {
				return fmt.Errorf("%w: reservation id=%d has a party of %d", ErrCapacityBelowParty, r.ID, r.PartySize)
			}
		}

		table.Capacity = capacity
		if err := s.tableRepo.Update(ctx, table); err != nil {
			return s.mapRepoError("UpdateCapacity", id, err)
		}

		updated = table
		return nil
	})
	if err != nil {
		s.logger.Warn("UpdateCapacity: table id=%d not updated: %v", id, err)
		return nil, err
	}

	s.logger.Info("UpdateCapacity: table id=%d now seats %d", id, capacity)
	return updated, nil
}

// Delete удаляет стол без броней
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: removing table id=%d", id)

	unlock, err := s.locker.Lock(ctx, domain.TableLockKey(id))
	if err != nil {
		return fmt.Errorf("%w: Delete - lock: %w", ErrInternal, err)
	}
	defer unlock()

	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		count, err := s.reservationRepo.CountByTable(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: Delete - count reservations: %w", ErrInternal, err)
		}
		if count > 0 {
			return fmt.Errorf("%w: table id=%d has %d reservation(s)", ErrTableInUse, id, count)
		}

		if err := s.tableRepo.Delete(ctx, id); err != nil {
			return s.mapRepoError("Delete", id, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Delete: table id=%d not removed: %v", id, err)
		return err
	}

	s.logger.Info("Delete: removed table id=%d", id)
	return nil
}

func (s *Service) mapRepoError(op string, id int64, err error) error {
	if errors.Is(err, tableRepo.ErrTableNotFound) {
		s.logger.Warn("%s: table id=%d not found", op, id)
		return fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, id)
	}
	if errors.Is(err, domain.ErrMalformedRow) {
		s.logger.Error("%s: table id=%d is malformed: %v", op, id, err)
		return err
	}
	s.logger.Error("%s: repository error for table id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}
