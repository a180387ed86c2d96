package middlewarectx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/arteemmka/reelkit/internal/http/response"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/access"
	"github.com/arteemmka/reelkit/internal/services/profile"
)

// RequireTier возвращает middleware, пропускающий запрос только при
// достаточном тарифе. Ошибка разрешения профиля — отказ (fail-closed),
// а не тариф по умолчанию; отказ по тарифу всегда несёт маршрут апгрейда.
func RequireTier(resolver ProfileResolver, evaluator *access.Evaluator,
	required models.Tier, feature string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireTier"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("feature", feature),
			)

			username, ok := r.Context().Value(User).(string)
			if !ok || username == "" {
				log.Error("username not found in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			p, err := resolver.Resolve(r.Context(), username)
			if err != nil {
				if errors.Is(err, profile.ErrUnauthenticated) {
					log.Error("unauthenticated", sl.Err(err))
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("sign in required"))
					return
				}
				log.Error("profile resolution failed", sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("could not resolve subscription tier, try again"))
				return
			}

			decision := evaluator.Check(p.Tier, required, feature)
			if !decision.Allowed {
				log.Info("access denied by tier",
					slog.String("current_tier", string(p.Tier)),
					slog.String("required_tier", string(required)))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Response{
					Status: response.StatusError,
					Error:  "subscription tier is not sufficient for this feature",
					Data:   decision,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
