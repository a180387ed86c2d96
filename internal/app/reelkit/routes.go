// Package reelkit собирает основное приложение: хранилище, кеш, брокер,
// сервисы и маршруты HTTP API.
package reelkit

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	accesscheck "github.com/arteemmka/reelkit/internal/http/handlers/access/check"
	"github.com/arteemmka/reelkit/internal/http/handlers/admin/settier"
	"github.com/arteemmka/reelkit/internal/http/handlers/auth/login"
	"github.com/arteemmka/reelkit/internal/http/handlers/auth/register"
	downloadcheck "github.com/arteemmka/reelkit/internal/http/handlers/download/check"
	downloadlist "github.com/arteemmka/reelkit/internal/http/handlers/download/list"
	downloadrecord "github.com/arteemmka/reelkit/internal/http/handlers/download/record"
	"github.com/arteemmka/reelkit/internal/http/handlers/health"
	profileget "github.com/arteemmka/reelkit/internal/http/handlers/profile/get"
	"github.com/arteemmka/reelkit/internal/http/handlers/video/renderurl"
	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/lib/cdnurl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/access"
	adminservice "github.com/arteemmka/reelkit/internal/services/admin"
	authservice "github.com/arteemmka/reelkit/internal/services/auth"
	"github.com/arteemmka/reelkit/internal/services/metering"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
	"github.com/arteemmka/reelkit/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.AuthService,
	profileResolver *profileservice.Resolver,
	evaluator *access.Evaluator,
	meteringService *metering.Service,
	adminService *adminservice.Service,
	builder *cdnurl.Builder,
	storage *repository.Storage,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/profile", profileget.New(logger, profileResolver).ServeHTTP)
			r.Get("/access/{feature}", accesscheck.New(logger, profileResolver, evaluator).ServeHTTP)
			r.Post("/videos/render-url", renderurl.New(logger, profileResolver, evaluator, builder).ServeHTTP)

			// Скачивания доступны только со starter, free получает 403 с upgrade_url
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireTier(profileResolver, evaluator,
					models.TierStarter, access.FeatureVideoDownloads, logger))
				r.Get("/downloads/limits", downloadcheck.New(logger, meteringService).ServeHTTP)
				r.Get("/downloads/list", downloadlist.New(logger, storage).ServeHTTP)
				r.Post("/downloads", downloadrecord.New(logger, meteringService).ServeHTTP)
			})

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole("admin", logger))
				r.Put("/admin/accounts/{username}/tier", settier.New(logger, adminService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
