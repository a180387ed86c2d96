// Package check реализует HTTP-обработчик проверки квоты скачиваний.
//
// Обработчик возвращает состояние лимита текущего биллингового периода:
// можно ли скачивать, сколько осталось и границы периода. При любом сбое
// проверки квота считается исчерпанной и возвращается 503.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
)

// Handler обрабатывает HTTP-запросы проверки квоты.
type Handler struct {
	log      *slog.Logger // Логгер для записи операций и ошибок
	metering Service      // Сервис учёта скачиваний
}

// Service описывает интерфейс проверки квоты.
type Service interface {
	CheckLimits(ctx context.Context, accountUID string) (*models.LimitStatus, error)
}

// New создает новый экземпляр Handler с указанными логгером и сервисом учёта.
func New(log *slog.Logger, metering Service) *Handler {
	return &Handler{
		log:      log,
		metering: metering,
	}
}

// ServeHTTP godoc
// @Summary Состояние квоты скачиваний
// @Description Возвращает лимит, остаток и границы текущего биллингового периода.
// @Tags Downloads
// @Produce  json
// @Success 200 {object} models.LimitStatus "Состояние квоты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 503 {object} response.ErrorResponse "Проверка квоты недоступна"
// @Security BearerAuth
// @Router /downloads/limits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.check"

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

	status, err := h.metering.CheckLimits(r.Context(), accountUID)
	if err != nil {
		log.Error("limit check failed", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("could not check download limits, try again"))
		return
	}

	log.Info("limit status resolved",
		slog.Bool("can_download", status.CanDownload),
		slog.Int("remaining", status.Remaining))
	render.JSON(w, r, response.OKWithData(status))
}
