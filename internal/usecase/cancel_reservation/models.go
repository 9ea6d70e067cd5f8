package cancel_reservation

// Request модель запроса на отмену брони
type Request struct {
	ReservationID int64
}

// Response модель ответа с освобождённым слотом
type Response struct {
	ID      int64
	TableID int64
	Slot    string
	Changed bool // false, если слот уже был свободен
}
