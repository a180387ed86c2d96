// Package list реализует HTTP-обработчик истории скачиваний аккаунта.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler обрабатывает HTTP-запросы истории скачиваний.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	storage Service      // Хранилище записей о скачиваниях
}

// Service описывает интерфейс чтения записей о скачиваниях.
type Service interface {
	ListDownloads(ctx context.Context, accountUID string, limit, offset int) ([]*models.DownloadRecord, error)
}

// New создает новый экземпляр Handler с указанными логгером и хранилищем.
func New(log *slog.Logger, storage Service) *Handler {
	return &Handler{
		log:     log,
		storage: storage,
	}
}

// ServeHTTP godoc
// @Summary История скачиваний
// @Description Возвращает записи о скачиваниях аккаунта, новые первыми.
// @Tags Downloads
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20, не более 100)"
// @Param offset query int false "Смещение"
// @Success 200 {array} models.DownloadRecord "Записи о скачиваниях"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /downloads/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid is missing from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("sign in required"))
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}

	records, err := h.storage.ListDownloads(r.Context(), accountUID, limit, offset)
	if err != nil {
		log.Error("failed to list downloads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list downloads"))
		return
	}

	log.Info("downloads listed", slog.Int("count", len(records)))
	render.JSON(w, r, response.OKWithData(records))
}
