package create_reservation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса и возвращает разобранный слот
func validateRequest(req *Request, maxPartySize int) (domain.SlotKey, error) {
	if req == nil {
		return domain.SlotKey{}, fmt.Errorf("%w: request is required", ErrInvalidInput)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SlotKey{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return domain.SlotKey{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrNameTooLong)
	}

	if req.PartySize <= 0 {
		return domain.SlotKey{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidPartySize)
	}
	if maxPartySize > 0 && req.PartySize > maxPartySize {
		return domain.SlotKey{}, fmt.Errorf("%w: %w: %d > %d", ErrInvalidInput, domain.ErrPartyTooLarge, req.PartySize, maxPartySize)
	}

	if req.TableID <= 0 {
		return domain.SlotKey{}, fmt.Errorf("%w: %w: tableID", ErrInvalidInput, domain.ErrInvalidID)
	}

	slot, err := domain.ParseSlotKey(req.Slot)
	if err != nil {
		return domain.SlotKey{}, err
	}

	return slot, nil
}
