package reelkit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/arteemmka/reelkit/internal/cache"
	"github.com/arteemmka/reelkit/internal/config"
	"github.com/arteemmka/reelkit/internal/lib/cdnurl"
	"github.com/arteemmka/reelkit/internal/lib/jwt"
	"github.com/arteemmka/reelkit/internal/migrations"
	"github.com/arteemmka/reelkit/internal/rabbitmq"
	"github.com/arteemmka/reelkit/internal/services/access"
	adminservice "github.com/arteemmka/reelkit/internal/services/admin"
	authservice "github.com/arteemmka/reelkit/internal/services/auth"
	"github.com/arteemmka/reelkit/internal/services/metering"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
	"github.com/arteemmka/reelkit/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и подключения к инфраструктуре.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New создаёт приложение: подключает хранилище, прогоняет миграции,
// поднимает кеш и брокер, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitConnection, 5, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)
	profileResolver := profileservice.New(db, cacheRedis, cfg.ProfileCacheTTL, cfg.CallTimeout, logger)
	evaluator := access.NewEvaluator()
	meteringService := metering.New(db, cfg.CallTimeout, logger)
	adminService := adminservice.New(db, &adminservice.ChannelPublisher{Ch: rabbitCh}, logger)
	builder := cdnurl.New(cfg.CDN.BaseURL, cfg.CDN.Cloud)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, profileResolver, evaluator,
		meteringService, adminService, builder, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.rabbitCh.Close()
		a.rabbitConn.Close()
		a.db.DB.Close()
		return err
	}
}
