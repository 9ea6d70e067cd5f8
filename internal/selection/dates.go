package selection

import (
	"time"

	"github.com/m04kA/SMC-TableBookingService/internal/domain"
)

// DateLayout формат даты в подписи варианта
const DateLayout = "2006-01-02"

// DateOptions варианты дат на неделю вперёд начиная с now
// Значение варианта - день недели, по которому строится ключ слота
func DateOptions(now time.Time) []Option {
	options := make([]Option, 0, domain.DaysPerWeek)
	for i := 0; i < domain.DaysPerWeek; i++ {
		date := now.AddDate(0, 0, i)
		weekday := domain.WeekdayOf(date)

		var name string
		switch i {
		case 0:
			name = "Today"
		case 1:
			name = "Tomorrow"
		default:
			name = string(weekday)
		}

		options = append(options, Option{
			Label: name + " " + date.Format(DateLayout),
			Value: string(weekday),
		})
	}
	return options
}
