package reconcile_occupancy

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

const operation = "reconcile"

// UseCase use case сверки календарей столов с бронями
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

// Execute находит расхождения между календарями и бронями
// С Repair календари приводятся к состоянию, которое следует из броней,
// а брони несуществующих столов удаляются. Двойные брони только
// попадают в отчёт: какую из них оставить, решает человек
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *Response, err error) {
	started := time.Now()
	defer func() {
		uc.metrics.ObserveOperation(operation, domain.Outcome(err), time.Since(started))
	}()

	if req == nil {
		req = &Request{}
	}

	uc.logger.Info("ReconcileOccupancy: started, repair=%t", req.Repair)

	// 1. Новые столы не появятся, пока идёт сверка
	unlockIDs, err := uc.locker.Lock(ctx, domain.TableIDLockKey)
	if err != nil {
		return nil, fmt.Errorf("%w: lock table ids: %w", ErrInternal, err)
	}
	defer unlockIDs()

	tables, err := uc.tableRepo.List(ctx)
	if err != nil {
		uc.logger.Error("ReconcileOccupancy: failed to list tables: %v", err)
		return nil, fmt.Errorf("%w: list tables: %w", ErrInternal, err)
	}

	// 2. Блокируем все столы
	keys := make([]string, 0, len(tables))
	for _, table := range tables {
		keys = append(keys, domain.TableLockKey(table.ID))
	}
	unlockTables, err := uc.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("%w: lock tables: %w", ErrInternal, err)
	}
	defer unlockTables()

	var result *Response

	// 3. Сверка и восстановление одной транзакцией
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		tables, err := uc.tableRepo.List(txCtx)
		if err != nil {
			return fmt.Errorf("%w: list tables: %w", ErrInternal, err)
		}
		reservations, err := uc.reservationRepo.List(txCtx)
		if err != nil {
			return fmt.Errorf("%w: list reservations: %w", ErrInternal, err)
		}

		discrepancies := findDiscrepancies(tables, reservations)

		if req.Repair {
			for i := range discrepancies {
				repaired, err := uc.repair(txCtx, discrepancies[i])
				if err != nil {
					uc.logger.Error("ReconcileOccupancy: failed to repair %s on table id=%d: %v",
						discrepancies[i].Kind, discrepancies[i].TableID, err)
					return fmt.Errorf("%w: repair %s: %w", ErrInternal, discrepancies[i].Kind, err)
				}
				discrepancies[i].Repaired = repaired
			}
		}

		result = &Response{
			Tables:        len(tables),
			Reservations:  len(reservations),
			Discrepancies: discrepancies,
			Counts:        countByKind(discrepancies),
			Repaired:      req.Repair,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, kind := range Kinds {
		uc.metrics.SetDiscrepancies(string(kind), result.Counts[kind])
	}

	for _, d := range result.Discrepancies {
		uc.logger.Warn("ReconcileOccupancy: %s table id=%d slot=%s reservations=%v repaired=%t",
			d.Kind, d.TableID, d.Slot, d.ReservationIDs, d.Repaired)
	}
	uc.logger.Info("ReconcileOccupancy: checked %d tables and %d reservations, found %d discrepancies",
		result.Tables, result.Reservations, len(result.Discrepancies))

	return result, nil
}

func (uc *UseCase) repair(ctx context.Context, d Discrepancy) (bool, error) {
	switch d.Kind {
	case KindOrphanedSlot, KindUnmarkedReservation:
		slot, err := domain.ParseSlotKey(d.Slot)
		if err != nil {
			return false, err
		}
		if _, err := uc.occupancy.SetSlot(ctx, d.TableID, slot, d.Kind == KindUnmarkedReservation); err != nil {
			return false, err
		}
		return true, nil
	case KindDanglingReservation:
		for _, id := range d.ReservationIDs {
			if err := uc.reservationRepo.Delete(ctx, id); err != nil {
				return false, err
			}
		}
		return true, nil
	default:
		return false, nil
	}
}

// findDiscrepancies сравнивает календари с бронями
// Порядок отчёта: брони несуществующих столов, затем столы по возрастанию ID
// и их слоты в порядке календаря
func findDiscrepancies(tables []*domain.Table, reservations []*domain.Reservation) []Discrepancy {
	known := make(map[int64]bool, len(tables))
	for _, table := range tables {
		known[table.ID] = true
	}

	holders := make(map[int64]map[domain.SlotKey][]int64, len(tables))
	discrepancies := make([]Discrepancy, 0)

	for _, r := range reservations {
		if !known[r.TableID] {
			discrepancies = append(discrepancies, Discrepancy{
				Kind:           KindDanglingReservation,
				TableID:        r.TableID,
				Slot:           r.Slot.String(),
				ReservationIDs: []int64{r.ID},
			})
			continue
		}
		if holders[r.TableID] == nil {
			holders[r.TableID] = make(map[domain.SlotKey][]int64)
		}
		holders[r.TableID][r.Slot] = append(holders[r.TableID][r.Slot], r.ID)
	}

	for _, table := range tables {
		for _, day := range domain.Weekdays {
			for _, hour := range domain.Hours() {
				slot := domain.SlotKey{Day: day, Hour: hour}
				ids := holders[table.ID][slot]
				occupied, _ := table.Timetable.Occupied(slot)

				switch {
				case occupied && len(ids) == 0:
					discrepancies = append(discrepancies, Discrepancy{
						Kind:    KindOrphanedSlot,
						TableID: table.ID,
						Slot:    slot.String(),
					})
				case !occupied && len(ids) > 0:
					discrepancies = append(discrepancies, Discrepancy{
						Kind:           KindUnmarkedReservation,
						TableID:        table.ID,
						Slot:           slot.String(),
						ReservationIDs: ids,
					})
				}

				if len(ids) > 1 {
					discrepancies = append(discrepancies, Discrepancy{
						Kind:           KindDoubleBooking,
						TableID:        table.ID,
						Slot:           slot.String(),
						ReservationIDs: ids,
					})
				}
			}
		}
	}

	return discrepancies
}

func countByKind(discrepancies []Discrepancy) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, kind := range Kinds {
		counts[kind] = 0
	}
	for _, d := range discrepancies {
		counts[d.Kind]++
	}
	return counts
}
