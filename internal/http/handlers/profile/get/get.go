// Package get реализует HTTP-обработчик получения профиля текущего пользователя.
//
// Имя пользователя берётся из контекста запроса, куда его помещает
// JWT middleware. Профиль разрешается через резолвер сессии и содержит
// актуальный тариф аккаунта.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
)

// Handler обрабатывает HTTP-запросы получения профиля.
type Handler struct {
	log      *slog.Logger // Логгер для записи операций и ошибок
	resolver Service      // Резолвер профиля
}

// Service описывает интерфейс резолвера профиля.
type Service interface {
	Resolve(ctx context.Context, username string) (*models.Profile, error)
}

// New создает новый экземпляр Handler с указанными логгером и резолвером.
func New(log *slog.Logger, resolver Service) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
	}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает идентификатор аккаунта и актуальный тариф вызывающего.
// @Tags Profile
// @Produce  json
// @Success 200 {object} models.Profile "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 503 {object} response.ErrorResponse "Не удалось разрешить профиль"
// @Security BearerAuth
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username is missing from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("sign in required"))
		return
	}

	profile, err := h.resolver.Resolve(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, profileservice.ErrUnauthenticated):
			log.Error("account not found", slog.String("username", username))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("sign in required"))
		default:
			log.Error("failed to resolve profile", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("could not resolve subscription tier, try again"))
		}
		return
	}

	log.Info("profile resolved", slog.String("username", username), slog.String("tier", string(profile.Tier)))
	render.JSON(w, r, response.OKWithData(profile))
}
