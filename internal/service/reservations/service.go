package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
)

// Service чтение броней
type Service struct {
	reservationRepo ReservationRepository
	logger          Logger
}

// NewService создает новый экземпляр сервиса броней
func NewService(reservationRepo ReservationRepository, logger Logger) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		logger:          logger,
	}
}

// GetByID получает бронь по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("GetByID: reservation id=%d not found", id)
			return nil, fmt.Errorf("%w: id=%d", domain.ErrReservationNotFound, id)
		}
		return nil, s.internal("GetByID", err)
	}
	return reservation, nil
}

// List возвращает все брони
func (s *Service) List(ctx context.Context) ([]*domain.Reservation, error) {
	list, err := s.reservationRepo.List(ctx)
	if err != nil {
		return nil, s.internal("List", err)
	}
	return list, nil
}

// ListByTable возвращает брони стола
func (s *Service) ListByTable(ctx context.Context, tableID int64) ([]*domain.Reservation, error) {
	list, err := s.reservationRepo.ListByTable(ctx, tableID)
	if err != nil {
		return nil, s.internal("ListByTable", err)
	}
	return list, nil
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("%s: repository error: %v", op, err)
	if errors.Is(err, domain.ErrMalformedRow) {
		return err
	}
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}
