// Package period содержит расчёт биллингового окна, в счёт которого
// метрикуются скачивания. Окно берётся из активной подписки, а при её
// отсутствии выводится льготный период от даты создания аккаунта.
package period

import "time"

// GraceDays — длительность льготного периода в днях для аккаунта
// без активной подписки.
const GraceDays = 30

// Window — полуинтервал [Start, End), против которого считается квота.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains сообщает, попадает ли момент t в окно.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Expired сообщает, закончилось ли окно к моменту now.
func (w Window) Expired(now time.Time) bool {
	return !now.Before(w.End)
}

// Grace выводит льготное окно от даты создания аккаунта.
func Grace(createdAt time.Time) Window {
	return Window{
		Start: createdAt,
		End:   createdAt.AddDate(0, 0, GraceDays),
	}
}

// FromSubscription строит окно из дат активной подписки.
func FromSubscription(start, end time.Time) Window {
	return Window{Start: start, End: end}
}
