// Package tierlistener собирает сервис-слушатель смены тарифа:
// подключение к брокеру и кешу, потребление очереди событий
// и инвалидация кешированных профилей.
package tierlistener

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/arteemmka/reelkit/internal/cache"
	"github.com/arteemmka/reelkit/internal/config"
	"github.com/arteemmka/reelkit/internal/rabbitmq"
	profileservice "github.com/arteemmka/reelkit/internal/services/profile"
	"github.com/arteemmka/reelkit/internal/services/tierevents"
)

// App инкапсулирует слушателя событий и подключения к инфраструктуре.
type App struct {
	listener   *tierevents.Listener
	logger     *slog.Logger
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New создаёт слушателя: подключает кеш и брокер, объявляет очередь событий.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
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

	listener := tierevents.NewListener(&profileCache{cache: cacheRedis}, logger)

	return &App{
		listener:   listener,
		logger:     logger,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run потребляет события смены тарифа до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("tier change listener starting")
	err := a.listener.Run(ctx, a.rabbitCh)
	a.rabbitCh.Close()
	a.rabbitConn.Close()
	return err
}

// profileCache адаптирует кеш под интерфейс инвалидатора профиля.
type profileCache struct {
	cache *cache.Cache
}

func (p *profileCache) Invalidate(username string) error {
	return p.cache.Invalidate(profileservice.CacheKey(username))
}
