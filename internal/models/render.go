package models

// DummyRenderURL используется для приёма параметров сборки
// трансформационного URL из JSON-запроса.
type DummyRenderURL struct {
	TemplateID    string         `json:"template_id" validate:"required"` // Идентификатор шаблонного ролика
	Overlays      []DummyOverlay `json:"overlays" validate:"dive"`        // Текстовые оверлеи
	BackgroundID  string         `json:"background_id,omitempty"`         // Фоновый ролик (опционально)
	GreenScreen   bool           `json:"green_screen,omitempty"`          // Кеинг зелёного фона
	StartOffsetMS int            `json:"start_offset_ms" validate:"gte=0"`
	DurationMS    int            `json:"duration_ms" validate:"gt=0"`
}

// DummyOverlay — один текстовый оверлей с таймингом.
type DummyOverlay struct {
	Text    string `json:"text" validate:"required"`
	Font    string `json:"font,omitempty"`
	Size    int    `json:"size,omitempty" validate:"gte=0"`
	Color   string `json:"color,omitempty"`
	StartMS int    `json:"start_ms" validate:"gte=0"`
	EndMS   int    `json:"end_ms" validate:"gtefield=StartMS"`
}
