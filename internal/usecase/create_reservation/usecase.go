package create_reservation

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

const operation = "create"

// UseCase use case для создания брони
type UseCase struct {
	tableRepo       TableRepository
	reservationRepo ReservationRepository
	occupancy       OccupancyService
	txManager       TransactionManager
	locker          Locker
	metrics         Metrics
	logger          Logger
	maxPartySize    int
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
	maxPartySize int,
) *UseCase {
	return &UseCase{
		tableRepo:       tableRepo,
		reservationRepo: reservationRepo,
		occupancy:       occupancy,
		txManager:       txManager,
		locker:          locker,
		metrics:         metrics,
		logger:          logger,
		maxPartySize:    maxPartySize,
	}
}

// Execute выполняет use case создания брони
// Чтение занятости, выделение ID, вставка брони и пометка слота идут одной
// сериализуемой транзакцией под блокировкой стола
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	started := time.Now()
	defer func() {
		uc.metrics.ObserveOperation(operation, domain.Outcome(err), time.Since(started))
	}()

	// 1. Валидация входных данных, до любой записи
	slot, err := validateRequest(req, uc.maxPartySize)
	if err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateReservation: name=%q party=%d table=%d slot=%s", req.Name, req.PartySize, req.TableID, slot)

	// 2. Блокируем пространство ID броней и стол
	unlock, err := uc.locker.Lock(ctx, domain.ReservationIDLockKey, domain.TableLockKey(req.TableID))
	if err != nil {
		uc.logger.Error("CreateReservation: failed to lock table id=%d: %v", req.TableID, err)
		return nil, fmt.Errorf("%w: lock: %w", ErrInternal, err)
	}
	defer unlock()

	var result *domain.Reservation

	// 3. Read-check-write одной транзакцией
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Стол
		table, err := uc.tableRepo.GetByID(txCtx, req.TableID)
		if err != nil {
			if errors.Is(err, tableRepo.ErrTableNotFound) {
				uc.logger.Warn("CreateReservation: table id=%d not found", req.TableID)
				return fmt.Errorf("%w: id=%d", domain.ErrTableNotFound, req.TableID)
			}
			uc.logger.Error("CreateReservation: failed to get table id=%d: %v", req.TableID, err)
			return fmt.Errorf("%w: get table: %w", ErrInternal, err)
		}

		// 3.2. Новый ID и черновик брони: проверка вместимости здесь
		maxID, err := uc.reservationRepo.MaxID(txCtx)
		if err != nil {
			return fmt.Errorf("%w: max reservation id: %w", ErrInternal, err)
		}

		reservation, err := domain.NewReservation(domain.NextID(maxID), table, req.PartySize, req.Name, slot)
		if err != nil {
			uc.logger.Warn("CreateReservation: draft rejected: %v", err)
			return err
		}

		// 3.3. Слот свободен и в календаре, и среди броней
		occupied, err := table.Timetable.Occupied(slot)
		if err != nil {
			return err
		}
		if occupied {
			uc.logger.Warn("CreateReservation: table id=%d slot %s is occupied", table.ID, slot)
			return fmt.Errorf("%w: table id=%d slot %s", domain.ErrSlotOccupied, table.ID, slot)
		}

		holder, err := uc.reservationRepo.GetBySlot(txCtx, table.ID, slot)
		switch {
		case err == nil:
			uc.logger.Error("CreateReservation: table id=%d slot %s is free in the timetable but held by reservation id=%d",
				table.ID, slot, holder.ID)
			return fmt.Errorf("%w: table id=%d slot %s held by reservation id=%d", domain.ErrSlotOccupied, table.ID, slot, holder.ID)
		case !errors.Is(err, reservationRepo.ErrReservationNotFound):
			return fmt.Errorf("%w: get reservation by slot: %w", ErrInternal, err)
		}

		if err := reservation.TransitionTo(domain.StateActive); err != nil {
			return err
		}

		// 3.4. Первая запись: строка брони
		if err := uc.reservationRepo.Insert(txCtx, reservation); err != nil {
			if errors.Is(err, reservationRepo.ErrDuplicate) {
				return fmt.Errorf("%w: table id=%d slot %s", domain.ErrSlotOccupied, table.ID, slot)
			}
			uc.logger.Error("CreateReservation: failed to insert reservation: %v", err)
			return fmt.Errorf("%w: insert reservation: %w", ErrInternal, err)
		}

		// 3.5. Вторая запись: слот занят
		if _, err := uc.occupancy.Occupy(txCtx, reservation); err != nil {
			return domain.NewPartialCommitError(operation, reservation.ID, "occupy slot", err)
		}

		result = reservation
		return nil
	})

	if err != nil {
		uc.reportPartialCommit(err)
		return nil, err
	}

	uc.logger.Info("CreateReservation: created reservation id=%d table=%d slot=%s", result.ID, result.TableID, result.Slot)

	return &Response{
		ID:        result.ID,
		Name:      result.Name,
		PartySize: result.PartySize,
		TableID:   result.TableID,
		Slot:      result.Slot.String(),
		State:     string(result.State),
	}, nil
}

func (uc *UseCase) reportPartialCommit(err error) {
	var pc *domain.PartialCommitError
	if !errors.As(err, &pc) {
		return
	}

	pc.RolledBack = !errors.Is(err, txmanager.ErrRollback)
	uc.logger.Error("CreateReservation: %v", pc)
	uc.metrics.IncPartialCommit(operation, pc.RolledBack)
}
