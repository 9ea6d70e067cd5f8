package reconcile_occupancy

// Kind вид расхождения между календарями и бронями
type Kind string

const (
	// KindOrphanedSlot слот занят, но брони на нём нет
	KindOrphanedSlot Kind = "orphaned_slot"
	// KindUnmarkedReservation бронь есть, а слот в календаре свободен
	KindUnmarkedReservation Kind = "unmarked_reservation"
	// KindDanglingReservation бронь ссылается на несуществующий стол
	KindDanglingReservation Kind = "dangling_reservation"
	// KindDoubleBooking две брони на один стол и слот
	KindDoubleBooking Kind = "double_booking"
)

// Kinds все виды расхождений в порядке отчёта
var Kinds = []Kind{KindOrphanedSlot, KindUnmarkedReservation, KindDanglingReservation, KindDoubleBooking}

// Request модель запроса на сверку
type Request struct {
	Repair bool
}

// Discrepancy одно найденное расхождение
type Discrepancy struct {
	Kind           Kind
	TableID        int64
	Slot           string
	ReservationIDs []int64
	Repaired       bool
}

// Response модель ответа сверки
type Response struct {
	Tables        int
	Reservations  int
	Discrepancies []Discrepancy
	Counts        map[Kind]int
	Repaired      bool
}

// Consistent возвращает true, если расхождений нет
func (r *Response) Consistent() bool {
	return len(r.Discrepancies) == 0
}
