package create_reservation

// Request модель запроса на создание брони
type Request struct {
	Name      string // Имя гостя
	PartySize int    // Размер компании
	TableID   int64  // ID стола
	Slot      string // Слот "<Weekday>_<hour>", например "Monday_18"
}

// Response модель ответа с созданной бронью
type Response struct {
	ID        int64
	Name      string
	PartySize int
	TableID   int64
	Slot      string
	State     string
}
