package relocate_reservation

import (
	"fmt"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

type target struct {
	slot    *domain.SlotKey
	tableID *int64
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) (target, error) {
	if req == nil {
		return target{}, fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	if req.ReservationID <= 0 {
		return target{}, fmt.Errorf("%w: %w: reservationID", ErrInvalidInput, domain.ErrInvalidID)
	}

	if req.NewSlot == nil && req.NewTableID == nil {
		return target{}, fmt.Errorf("%w: new slot or new table is required", ErrInvalidInput)
	}

	var t target
	if req.NewTableID != nil {
		if *req.NewTableID <= 0 {
			return target{}, fmt.Errorf("%w: %w: newTableID", ErrInvalidInput, domain.ErrInvalidID)
		}
		t.tableID = req.NewTableID
	}

	if req.NewSlot != nil {
		slot, err := domain.ParseSlotKey(*req.NewSlot)
		if err != nil {
			return target{}, err
		}
		t.slot = &slot
	}

	return t, nil
}

// resolve подставляет текущие значения брони вместо неуказанных
func (t target) resolve(r *domain.Reservation) (int64, domain.SlotKey) {
	tableID, slot := r.TableID, r.Slot
	if t.tableID != nil {
		tableID = *t.tableID
	}
	if t.slot != nil {
		slot = *t.slot
	}
	return tableID, slot
}
