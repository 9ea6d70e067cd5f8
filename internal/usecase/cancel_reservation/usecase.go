package cancel_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-TableBookingService/pkg/txmanager"
)

const operation = "cancel"

// UseCase use case для отмены брони
type UseCase struct {
	reservationRepo ReservationRepository
	occupancy       OccupancyService
	txManager       TransactionManager
	locker          Locker
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	occupancy OccupancyService,
	txManager TransactionManager,
	locker Locker,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		occupancy:       occupancy,
		txManager:       txManager,
		locker:          locker,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute освобождает слот брони и удаляет её строку
// Если стол брони не существует, отмена завершается ошибкой: такие брони
// удаляет сверка занятости с восстановлением
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	started := time.Now()
	defer func() {
		uc.metrics.ObserveOperation(operation, domain.Outcome(err), time.Since(started))
	}()

	if req == nil || req.ReservationID <= 0 {
		err = fmt.Errorf("%w: %w: reservationID", ErrInvalidInput, domain.ErrInvalidID)
		uc.logger.Warn("CancelReservation: validation failed: %v", err)
		return nil, err
	}

	current, err := uc.getReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CancelReservation: id=%d table=%d slot=%s", current.ID, current.TableID, current.Slot)

	unlock, err := uc.locker.Lock(ctx, domain.TableLockKey(current.TableID))
	if err != nil {
		uc.logger.Error("CancelReservation: failed to lock table id=%d: %v", current.TableID, err)
		return nil, fmt.Errorf("%w: lock: %w", ErrInternal, err)
	}
	defer unlock()

	var result *Response

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		reservation, err := uc.getReservation(txCtx, req.ReservationID)
		if err != nil {
			return err
		}
		if reservation.TableID != current.TableID {
			uc.logger.Warn("CancelReservation: id=%d moved to table %d while waiting for lock", reservation.ID, reservation.TableID)
			return ErrConcurrentModification
		}

		if !reservation.State.CanTransition(domain.StateCancelled) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, reservation.State, domain.StateCancelled)
		}

		// Первая запись: слот свободен
		changed, err := uc.occupancy.Release(txCtx, reservation)
		if err != nil {
			uc.logger.Error("CancelReservation: failed to release slot of id=%d: %v", reservation.ID, err)
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedSlotKey) {
				return err
			}
			return fmt.Errorf("%w: release slot: %w", ErrInternal, err)
		}
		if !changed {
			uc.logger.Warn("CancelReservation: slot %s of table id=%d was already free", reservation.Slot, reservation.TableID)
		}

		// Вторая запись: строка брони удалена
		if err := uc.reservationRepo.Delete(txCtx, reservation.ID); err != nil {
			return domain.NewPartialCommitError(operation, reservation.ID, "delete reservation", err)
		}

		if err := reservation.TransitionTo(domain.StateCancelled); err != nil {
			return err
		}

		result = &Response{
			ID:      reservation.ID,
			TableID: reservation.TableID,
			Slot:    reservation.Slot.String(),
			Changed: changed,
		}
		return nil
	})

	if err != nil {
		uc.reportPartialCommit(err)
		return nil, err
	}

	uc.logger.Info("CancelReservation: cancelled reservation id=%d, table id=%d slot %s is free", result.ID, result.TableID, result.Slot)
	return result, nil
}

func (uc *UseCase) getReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := uc.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("CancelReservation: reservation id=%d not found", id)
			return nil, fmt.Errorf("%w: id=%d", domain.ErrReservationNotFound, id)
		}
		if errors.Is(err, domain.ErrMalformedRow) {
			return nil, err
		}
		uc.logger.Error("CancelReservation: failed to get reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: get reservation: %w", ErrInternal, err)
	}
	return reservation, nil
}

func (uc *UseCase) reportPartialCommit(err error) {
	var pc *domain.PartialCommitError
	if !errors.As(err, &pc) {
		return
	}

	pc.RolledBack = !errors.Is(err, txmanager.ErrRollback)
	uc.logger.Error("CancelReservation: %v", pc)
	uc.metrics.IncPartialCommit(operation, pc.RolledBack)
}
