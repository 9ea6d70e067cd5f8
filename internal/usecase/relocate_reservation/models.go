package relocate_reservation

// Request модель запроса на перенос брони
// Должен быть указан хотя бы один из NewSlot и NewTableID
type Request struct {
	ReservationID int64
	NewSlot       *string // Новый слот "<Weekday>_<hour>"
	NewTableID    *int64  // Новый стол
}

// Response модель ответа с перенесённой бронью
type Response struct {
	ID         int64
	OldTableID int64
	OldSlot    string
	TableID    int64
	Slot       string
	State      string
}
