package models

import "time"

// SubscriptionPeriod представляет активное биллинговое окно аккаунта.
// Строки создаются и обновляются платёжным коллаборатором, этот сервис
// их только читает.
type SubscriptionPeriod struct {
	AccountUID string    // Владелец периода
	Start      time.Time // Начало периода
	End        time.Time // Конец периода
	Status     string    // Статус: active, canceled и т.д.
}

// Contains сообщает, попадает ли момент t в окно [Start, End).
func (p SubscriptionPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// TierChange — событие смены тарифа аккаунта, публикуемое в очередь
// при изменении тарифа (платёжный вебхук или административное действие).
type TierChange struct {
	AccountUID string    `json:"account_uid"`
	Username   string    `json:"username"`
	OldTier    Tier      `json:"old_tier"`
	NewTier    Tier      `json:"new_tier"`
	ChangedAt  time.Time `json:"changed_at"`
}
