// Package check реализует HTTP-обработчик проверки доступа к возможности.
//
// Обработчик разрешает профиль вызывающего, находит минимальный тариф
// для запрошенной возможности и возвращает решение оценщика доступа:
// разрешено или нет, и куда вести пользователя для апгрейда.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/access"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
)

// Handler обрабатывает HTTP-запросы проверки доступа.
type Handler struct {
	log       *slog.Logger      // Логгер для записи операций и ошибок
	resolver  Service           // Резолвер профиля
	evaluator *access.Evaluator // Оценщик тарифного доступа
}

// Service описывает интерфейс резолвера профиля.
type Service interface {
	Resolve(ctx context.Context, username string) (*models.Profile, error)
}

// New создает новый экземпляр Handler с указанными логгером, резолвером и оценщиком.
func New(log *slog.Logger, resolver Service, evaluator *access.Evaluator) *Handler {
	return &Handler{
		log:       log,
		resolver:  resolver,
		evaluator: evaluator,
	}
}

// ServeHTTP godoc
// @Summary Проверка доступа к возможности
// @Description Возвращает решение: доступна ли возможность на текущем тарифе вызывающего.
// @Tags Access
// @Produce  json
// @Param feature path string true "Имя возможности, например video_downloads"
// @Success 200 {object} access.Decision "Решение о доступе"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Неизвестная возможность"
// @Failure 503 {object} response.ErrorResponse "Не удалось разрешить профиль"
// @Security BearerAuth
// @Router /access/{feature} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	feature := chi.URLParam(r, "feature")
	required, ok := access.RequiredTier(feature)
	if !ok {
		log.Error("unknown feature requested", slog.String("feature", feature))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown feature"))
		return
	}

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username is missing from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("sign in required"))
		return
	}

	profile, err := h.resolver.Resolve(r.Context(), username)
	if err != nil {
		if errors.Is(err, profileservice.ErrUnauthenticated) {
			log.Error("account not found", slog.String("username", username))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("sign in required"))
			return
		}
		log.Error("failed to resolve profile", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("could not resolve subscription tier, try again"))
		return
	}

	decision := h.evaluator.Check(profile.Tier, required, feature)
	log.Info("access evaluated",
		slog.String("feature", feature),
		slog.String("tier", string(profile.Tier)),
		slog.Bool("allowed", decision.Allowed))
	render.JSON(w, r, response.OKWithData(decision))
}
