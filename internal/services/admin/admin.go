// Package admin содержит административную смену тарифа аккаунта.
// Тариф меняют только платёжный вебхук (внешний коллаборатор) и это
// действие; после изменения публикуется событие для слушателей.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/rabbitmq"
	"github.com/arteemmka/reelkit/internal/storage/repository"
	"github.com/streadway/amqp"
)

// ErrAccountNotFound возвращается, когда аккаунт для смены тарифа не найден.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository определяет методы хранилища для смены тарифа.
type AccountRepository interface {
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdateAccountTier(ctx context.Context, username string, tier models.Tier) (int, error)
}

// Publisher публикует сообщения в очередь.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// ChannelPublisher — адаптер amqp-канала под интерфейс Publisher.
type ChannelPublisher struct {
	Ch *amqp.Channel
}

// Publish публикует сообщение через amqp-канал.
func (p *ChannelPublisher) Publish(exchange, routingKey string, message any) error {
	return rabbitmq.PublishMessage(p.Ch, exchange, routingKey, message)
}

// Service реализует административную смену тарифа.
type Service struct {
	repo      AccountRepository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый Service.
func New(repo AccountRepository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// SetTier меняет тариф аккаунта и публикует событие смены тарифа.
// Ошибка публикации не откатывает изменение: слушатель догонит состояние
// по истечении TTL кеша профиля.
func (s *Service) SetTier(ctx context.Context, username string, newTier models.Tier) (*models.TierChange, error) {
	const op = "admin.SetTier"

	account, err := s.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if account.Tier == newTier {
		s.log.Info("tier unchanged", slog.String("username", username),
			slog.String("tier", string(newTier)))
		return &models.TierChange{
			AccountUID: account.UID,
			Username:   account.Username,
			OldTier:    account.Tier,
			NewTier:    newTier,
			ChangedAt:  time.Now().UTC(),
		}, nil
	}

	affected, err := s.repo.UpdateAccountTier(ctx, username, newTier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}

	event := &models.TierChange{
		AccountUID: account.UID,
		Username:   account.Username,
		OldTier:    account.Tier,
		NewTier:    newTier,
		ChangedAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(rabbitmq.TierEventsExchange, rabbitmq.TierChangedRoutingKey, event); err != nil {
		s.log.Error("failed to publish tier change", sl.Err(err),
			slog.String("username", username))
	}

	s.log.Info("tier changed",
		slog.String("username", username),
		slog.String("old_tier", string(event.OldTier)),
		slog.String("new_tier", string(event.NewTier)))
	return event, nil
}
