package relocate_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/reservation"
	tableRepo "github.com/m04kA/SMC-TableBookingService/internal/infra/storage/table"
	"github.com/m04kA/SMC-TableBookingService/pkg/txmanager"
)

const operation = "relocate"

// UseCase use case для переноса брони на другой слот и/или стол
type UseCase struct {
	tableRepo       TableRepository
	reservationRepo ReservationRepository
	occupancy       OccupancyService
	txManager       TransactionManager
	locker          Locker
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	tableRepo TableRepository,
	reservationRepo ReservationRepository,
	occupancy OccupancyService,
	txManager TransactionManager,
	locker Locker,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		tableRepo:       tableRepo,
		reservationRepo: reservationRepo,
		occupancy:       occupancy,
		txManager:       txManager,
		locker:          locker,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute выполняет перенос брони
// Порядок записей: освободить старый слот, обновить бронь, занять новый.
// ID брони сохраняется.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	started := time.Now()
	defer func() {
		uc.metrics.ObserveOperation(operation, domain.Outcome(err), time.Since(started))
	}()

	// 1. Валидация входных данных
	tgt, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("RelocateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Узнаём текущий стол брони, чтобы взять блокировки
	current, err := uc.getReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}
	newTableID, _ := tgt.resolve(current)

	uc.logger.Info("RelocateReservation: id=%d table %d -> %d", current.ID, current.TableID, newTableID)

	unlock, err := uc.locker.Lock(ctx, domain.TableLockKey(current.TableID), domain.TableLockKey(newTableID))
	if err != nil {
		uc.logger.Error("RelocateReservation: failed to lock tables: %v", err)
		return nil, fmt.Errorf("%w: lock: %w", ErrInternal, err)
	}
	defer unlock()

	var result *Response

	// 3. Read-check-write одной транзакцией
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Перечитываем бронь под блокировкой
		reservation, err := uc.getReservation(txCtx, req.ReservationID)
		if err != nil {
			return err
		}
		if reservation.TableID != current.TableID {
			uc.logger.Warn("RelocateReservation: id=%d moved to table %d while waiting for lock", reservation.ID, reservation.TableID)
			return ErrConcurrentModification
		}

		tableID, slot := tgt.resolve(reservation)
		if tableID == reservation.TableID && slot == reservation.Slot {
			return ErrNothingToChange
		}

		if !reservation.State.CanTransition(domain.StateRelocated) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, reservation.State, domain.StateRelocated)
		}

		// 3.2. Проверяем целевой стол и слот до любой записи
		if err := uc.checkTarget(txCtx, reservation, tableID, slot); err != nil {
			return err
		}

		oldReservation := *reservation

		// 3.3. Первая запись: освобождаем старый слот
		if _, err := uc.occupancy.Release(txCtx, &oldReservation); err != nil {
			uc.logger.Error("RelocateReservation: failed to release old slot of id=%d: %v", reservation.ID, err)
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedSlotKey) {
				return err
			}
			return fmt.Errorf("%w: release old slot: %w", ErrInternal, err)
		}

		// 3.4. Обновляем бронь
		reservation.TableID = tableID
		reservation.Slot = slot
		if err := reservation.TransitionTo(domain.StateRelocated); err != nil {
			return domain.NewPartialCommitError(operation, reservation.ID, "transition reservation", err)
		}
		if err := uc.reservationRepo.Update(txCtx, reservation); err != nil {
			return domain.NewPartialCommitError(operation, reservation.ID, "update reservation", err)
		}

		// 3.5. Занимаем новый слот
		if _, err := uc.occupancy.Occupy(txCtx, reservation); err != nil {
			return domain.NewPartialCommitError(operation, reservation.ID, "occupy new slot", err)
		}

		result = &Response{
			ID:         reservation.ID,
			OldTableID: oldReservation.TableID,
			OldSlot:    oldReservation.Slot.String(),
			TableID:    reservation.TableID,
			Slot:       reservation.Slot.String(),
			State:      string(reservation.State),
		}
		return nil
	})

	if err != nil {
		uc.reportPartialCommit(err)
		return nil, err
	}

	uc.logger.Info("RelocateReservation: id=%d moved from table %d %s to table %d %s",
		result.ID, result.OldTableID, result.OldSlot, result.TableID, result.Slot)
	return result, nil
}

func (uc *UseCase) getReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	reservation, err := uc.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("RelocateReservation: reservation id=%d not found", id)
			return nil, fmt.Errorf("%w: id=%d", domain.ErrReservationNotFound, id)
		}
		if errors.Is(err, domain.ErrMalformedRow) {
			return nil, err
		}
		uc.logger.Error("RelocateReservation: failed to get reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: get reservation: %w", ErrInternal, err)
	}
	return reservation, nil
}

// checkTarget проверяет, что стол существует, вмещает компанию и слот свободен
func (uc *UseCase) checkTarget(ctx context.Context, reservation *domain.Reservation, tableID int64, slot domain.SlotKey) error {
	table, err := uc.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, tableRepo.ErrTableNotFound) {
			uc.logger.Warn("RelocateReservation: target table id=%d not found", tableID)
			return fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, tableID)
		}
		return fmt.Errorf("%w: get target table: %w", ErrInternal, err)
	}

	if !table.CanSeat(reservation.PartySize) {
		uc.logger.Warn("RelocateReservation: table id=%d seats %d, party is %d", table.ID, table.Capacity, reservation.PartySize)
		return fmt.Errorf("%w: party of %d, table id=%d seats %d",
			domain.ErrCapacityExceeded, reservation.PartySize, table.ID, table.Capacity)
	}

	occupied, err := table.Timetable.Occupied(slot)
	if err != nil {
		return err
	}
	if occupied {
		return fmt.Errorf("%w: table id=%d slot %s", domain.ErrSlotOccupied, table.ID, slot)
	}

	holder, err := uc.reservationRepo.GetBySlot(ctx, table.ID, slot)
	switch {
	case err == nil:
		return fmt.Errorf("%w: table id=%d slot %s held by reservation id=%d", domain.ErrSlotOccupied, table.ID, slot, holder.ID)
	case !errors.Is(err, reservationRepo.ErrReservationNotFound):
		return fmt.Errorf("%w: get reservation by slot: %w", ErrInternal, err)
	}

	return nil
}

func (uc *UseCase) reportPartialCommit(err error) {
	var pc *domain.PartialCommitError
	if !errors.As(err, &pc) {
		return
	}

	pc.RolledBack = !errors.Is(err, txmanager.ErrRollback)
	uc.logger.Error("RelocateReservation: %v", pc)
	uc.metrics.IncPartialCommit(operation, pc.RolledBack)
}
