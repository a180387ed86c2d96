package models

import "time"

// FeatureLimit — квота на метрикуемое действие для пары (тариф, фича).
// Справочные данные, для этого сервиса доступны только на чтение.
type FeatureLimit struct {
	Tier        Tier   // Тариф
	FeatureName string // Имя фичи, например video_downloads
	Limit       int    // Квота за биллинговый период
}

// FeatureVideoDownloads — имя фичи скачивания готовых роликов.
const FeatureVideoDownloads = "video_downloads"

// DownloadRecord — одна запись о списанном скачивании. Создаётся ровно
// один раз на успешное скачивание, никогда не обновляется и не удаляется.
type DownloadRecord struct {
	AccountUID   string    // Аккаунт, с квоты которого списано скачивание
	ResourceRef  string    // Ссылка на скачанный ресурс
	PeriodStart  time.Time // Начало периода, в счёт которого списано
	PeriodEnd    time.Time // Конец периода
	DownloadedAt time.Time // Момент скачивания
}

// LimitStatus — результат проверки квоты скачиваний.
// Remaining может быть отрицательным только при гонке двух параллельных
// списаний, это принятое и ограниченное поведение.
type LimitStatus struct {
	CanDownload bool      `json:"can_download"`
	Remaining   int       `json:"remaining"`
	Limit       int       `json:"limit"`
	Tier        Tier      `json:"tier"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// DummyDownload используется для приёма запроса на списание скачивания.
type DummyDownload struct {
	ResourceRef string `json:"resource_ref" validate:"required"` // Идентификатор скачиваемого ролика
}
