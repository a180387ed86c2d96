// Package settier реализует административный HTTP-обработчик смены тарифа аккаунта.
//
// Смена тарифа публикует событие в брокер, по которому слушатель
// инвалидирует кешированный профиль аккаунта. Маршрут доступен только
// пользователям с ролью admin.
package settier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	adminservice "github.com/arteemmka/reelkit/internal/services/admin"
)

// Request — структура входных данных для смены тарифа.
type Request struct {
	Tier string `json:"tier" validate:"required"` // Новый тариф: free, starter, pro или enterprise
}

// Handler обрабатывает HTTP-запросы смены тарифа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	admin    Service             // Административный сервис
	validate *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс административной смены тарифа.
type Service interface {
	SetTier(ctx context.Context, username string, newTier models.Tier) (*models.TierChange, error)
}

// New создает новый экземпляр Handler с указанными логгером и сервисом.
func New(log *slog.Logger, admin Service) *Handler {
	return &Handler{
		log:      log,
		admin:    admin,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Смена тарифа аккаунта
// @Description Устанавливает новый тариф аккаунту и публикует событие смены тарифа.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param username path string true "Имя пользователя"
// @Param request body Request true "Новый тариф"
// @Success 200 {object} models.TierChange "Событие смены тарифа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 404 {object} response.ErrorResponse "Аккаунт не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /admin/accounts/{username}/tier [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settier"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username := chi.URLParam(r, "username")
	if username == "" {
		log.Error("username is missing from url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("username is required"))
		return
	}

	var req Request
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

	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		log.Error("unknown tier", slog.String("tier", req.Tier))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown tier"))
		return
	}

	change, err := h.admin.SetTier(r.Context(), username, tier)
	if err != nil {
		if errors.Is(err, adminservice.ErrAccountNotFound) {
			log.Error("account not found", slog.String("username", username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to set tier", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to set tier"))
		return
	}

	log.Info("tier updated",
		slog.String("username", username),
		slog.String("old_tier", string(change.OldTier)),
		slog.String("new_tier", string(change.NewTier)))
	render.JSON(w, r, response.OKWithData(change))
}
