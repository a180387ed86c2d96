// Package cdnurl собирает трансформационные URL видео-CDN: обрезка по таймингу,
// текстовые оверлеи с анимацией появления, подклейка фонового ролика и кеинг
// зелёного фона. Сборка чисто строковая, без обращений к CDN.
package cdnurl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/arteemmka/reelkit/internal/models"
)

// DefaultFont — шрифт оверлея, если в запросе он не указан.
const DefaultFont = "Arial"

// DefaultFontSize — размер шрифта оверлея по умолчанию.
const DefaultFontSize = 48

// Builder хранит базовый адрес CDN и имя облака.
type Builder struct {
	baseURL string
	cloud   string
}

// New создает Builder. baseURL ожидается без завершающего слэша,
// например https://res.vidcdn.net.
func New(baseURL, cloud string) *Builder {
	return &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
		cloud:   cloud,
	}
}

// RenderURL собирает итоговый URL ролика из параметров запроса.
// Порядок сегментов фиксирован: обрезка, фон/кеинг, оверлеи.
func (b *Builder) RenderURL(req models.DummyRenderURL) string {
	var segments []string

	if trim := trimSegment(req.StartOffsetMS, req.DurationMS); trim != "" {
		segments = append(segments, trim)
	}

	if req.BackgroundID != "" {
		segments = append(segments, spliceSegment(req.BackgroundID, req.GreenScreen))
	}

	for _, ov := range req.Overlays {
		segments = append(segments, overlaySegment(ov))
	}

	path := req.TemplateID + ".mp4"
	if len(segments) == 0 {
		return fmt.Sprintf("%s/%s/video/upload/%s", b.baseURL, b.cloud, path)
	}
	return fmt.Sprintf("%s/%s/video/upload/%s/%s",
		b.baseURL, b.cloud, strings.Join(segments, "/"), path)
}

// trimSegment переводит тайминги из миллисекунд в секунды CDN (so_/du_).
func trimSegment(startMS, durationMS int) string {
	if durationMS <= 0 {
		return ""
	}
	return fmt.Sprintf("so_%s,du_%s", seconds(startMS), seconds(durationMS))
}

// spliceSegment подкладывает фоновый ролик; при greenScreen добавляется
// кеинг зелёного цвета поверх фона.
func spliceSegment(backgroundID string, greenScreen bool) string {
	parts := []string{"l_video:" + encodePublicID(backgroundID)}
	if greenScreen {
		parts = append(parts, "e_make_transparent:20,co_rgb:00ff00")
	} else {
		parts = append(parts, "fl_splice")
	}
	parts = append(parts, "fl_layer_apply")
	return strings.Join(parts, "/")
}

// overlaySegment строит слой текстового оверлея с цветом и таймингом показа.
func overlaySegment(ov models.DummyOverlay) string {
	font := ov.Font
	if font == "" {
		font = DefaultFont
	}
	size := ov.Size
	if size <= 0 {
		size = DefaultFontSize
	}

	layer := fmt.Sprintf("l_text:%s_%d:%s", font, size, encodeText(ov.Text))
	if ov.Color != "" {
		layer += ",co_rgb:" + strings.TrimPrefix(ov.Color, "#")
	}

	apply := "fl_layer_apply"
	if ov.EndMS > ov.StartMS {
		apply = fmt.Sprintf("so_%s,eo_%s,%s", seconds(ov.StartMS), seconds(ov.EndMS), apply)
	}
	return layer + "/" + apply
}

// seconds форматирует миллисекунды в секунды с точностью до десятой,
// целые значения остаются без дробной части.
func seconds(ms int) string {
	if ms%1000 == 0 {
		return fmt.Sprintf("%d", ms/1000)
	}
	return strings.TrimRight(fmt.Sprintf("%.1f", float64(ms)/1000), "0")
}

// encodeText экранирует текст оверлея для вставки в path-сегмент URL.
// Запятая и слэш разделяют параметры трансформации, их экранируем всегда.
func encodeText(text string) string {
	escaped := url.PathEscape(text)
	escaped = strings.ReplaceAll(escaped, ",", "%2C")
	escaped = strings.ReplaceAll(escaped, "/", "%2F")
	return escaped
}

// encodePublicID экранирует идентификатор ролика: слэши в public id
// CDN кодирует двоеточиями.
func encodePublicID(id string) string {
	return strings.ReplaceAll(id, "/", ":")
}
