// Package renderurl реализует HTTP-обработчик сборки трансформационного URL ролика.
//
// Базовая сборка доступна на любом тарифе, но отдельные возможности
// гейтируются: текстовые оверлеи требуют starter, кеинг зелёного
// фона — pro. При отказе возвращается решение оценщика со ссылкой
// на страницу апгрейда.
package renderurl

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
	"github.com/arteemmka/reelkit/internal/lib/cdnurl"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/access"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
)

// Handler обрабатывает HTTP-запросы сборки URL.
type Handler struct {
	log       *slog.Logger        // Логгер для записи операций и ошибок
	resolver  Service             // Резолвер профиля
	evaluator *access.Evaluator   // Оценщик тарифного доступа
	builder   *cdnurl.Builder     // Сборщик трансформационных URL
	validate  *validator.Validate // Валидатор для проверки входных данных
}

// Service описывает интерфейс резолвера профиля.
type Service interface {
	Resolve(ctx context.Context, username string) (*models.Profile, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, resolver Service, evaluator *access.Evaluator, builder *cdnurl.Builder) *Handler {
	return &Handler{
		log:       log,
		resolver:  resolver,
		evaluator: evaluator,
		builder:   builder,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сборка URL рендеринга ролика
// @Description Собирает трансформационный URL по шаблону, оверлеям и фону. Оверлеи доступны со starter, зелёный фон — с pro.
// @Tags Video
// @Accept  json
// @Produce  json
// @Param request body models.DummyRenderURL true "Параметры рендеринга"
// @Success 200 {object} map[string]any "Собранный URL"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не аутентифицирован"
// @Failure 403 {object} access.Decision "Возможность недоступна на текущем тарифе"
// @Failure 503 {object} response.ErrorResponse "Не удалось разрешить профиль"
// @Security BearerAuth
// @Router /videos/render-url [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.renderurl"

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

	var req models.DummyRenderURL
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
	log.Info("all fields are validated")

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

	if decision, denied := h.gate(profile.Tier, req); denied {
		log.Info("render feature denied",
			slog.String("feature", decision.Feature),
			slog.String("tier", string(profile.Tier)))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, decision)
		return
	}

	url := h.builder.RenderURL(req)
	log.Info("render url built", slog.String("template_id", req.TemplateID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url": url,
	}))
}

// gate проверяет гейтируемые возможности запроса против тарифа вызывающего.
func (h *Handler) gate(tier models.Tier, req models.DummyRenderURL) (access.Decision, bool) {
	if len(req.Overlays) > 0 {
		required, _ := access.RequiredTier(access.FeatureTextOverlays)
		decision := h.evaluator.Check(tier, required, access.FeatureTextOverlays)
		if !decision.Allowed {
			return decision, true
		}
	}
	if req.GreenScreen {
		required, _ := access.RequiredTier(access.FeatureGreenScreen)
		decision := h.evaluator.Check(tier, required, access.FeatureGreenScreen)
		if !decision.Allowed {
			return decision, true
		}
	}
	return access.Decision{}, false
}
