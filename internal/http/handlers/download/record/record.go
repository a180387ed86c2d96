// Package record реализует HTTP-обработчик списания скачивания.
//
// Обработчик повторно проверяет квоту и записывает факт скачивания
// со штампом границ текущего биллингового периода. Исчерпанная квота
// возвращается как 429 со ссылкой на страницу апгрейда.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/access"
	"github.com/arteemmka/reelkit/internal/services/metering"
)

// Handler обрабатывает HTTP-запросы списания скачивания.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	metering Service             // Сервис учёта скачиваний
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс списания скачивания.
type Service interface {
	RecordDownload(ctx context.Context, accountUID, resourceRef string) error
}

// New создает новый экземпляр Handler с указанными логгером и сервисом учёта.
func New(log *slog.Logger, meteringService Service) *Handler {
	return &Handler{
		log:      log,
		metering: meteringService,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Списание скачивания
// @Description Проверяет квоту и записывает скачивание ролика в текущем биллинговом периоде.
// @Tags Downloads
// @Accept  json
// @Produce  json
// @Param request body models.DummyDownload true "Скачиваемый ресурс"
// @Success 200 {object} map[string]any "Скачивание записано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 429 {object} map[string]any "Квота исчерпана"
// @Failure 503 {object} response.ErrorResponse "Проверка квоты недоступна"
// @Failure 500 {object} response.ErrorResponse "Не удалось записать скачивание"
// @Security BearerAuth
// @Router /downloads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.record"

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

	var req models.DummyDownload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.metering.RecordDownload(r.Context(), accountUID, req.ResourceRef)
	if err != nil {
		switch {
		case errors.Is(err, metering.ErrLimitExhausted):
			log.Info("download limit exhausted", slog.String("account_uid", accountUID))
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, map[string]any{
				"status":      response.StatusError,
				"error":       "download limit exhausted",
				"upgrade_url": access.UpgradeRoute,
			})
		case errors.Is(err, metering.ErrLimitCheckFailed):
			log.Error("limit check failed", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("could not check download limits, try again"))
		default:
			log.Error("failed to record download", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to record download"))
		}
		return
	}

	log.Info("download recorded",
		slog.String("account_uid", accountUID),
		slog.String("resource_ref", req.ResourceRef))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"resource_ref": req.ResourceRef,
	}))
}
