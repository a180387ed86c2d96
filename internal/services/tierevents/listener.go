// Package tierevents реализует слушателя смены тарифа: событие из очереди
// инвалидирует кеш профиля и раздаётся внутрипроцессным подписчикам,
// чтобы апгрейд или даунгрейд распространился без повторного входа.
package tierevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/rabbitmq"
)

// ProfileInvalidator сбрасывает кешированный профиль пользователя.
type ProfileInvalidator interface {
	Invalidate(username string) error
}

// Listener потребляет события смены тарифа и раздаёт их подписчикам.
type Listener struct {
	invalidator ProfileInvalidator
	log         *slog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan models.TierChange
}

// NewListener создает новый Listener.
func NewListener(invalidator ProfileInvalidator, log *slog.Logger) *Listener {
	return &Listener{
		invalidator: invalidator,
		log:         log,
		subs:        make(map[string]map[int]chan models.TierChange),
	}
}

// Run запускает потребление очереди событий смены тарифа.
// Останавливается при отмене контекста.
func (l *Listener) Run(ctx context.Context, ch *amqp.Channel) error {
	const op = "tierevents.Run"
	err := rabbitmq.ConsumeMessages(ctx, ch, rabbitmq.TierChangedQueue, l.Handle)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Handle обрабатывает одно событие: инвалидация кеша, затем fan-out.
// Ошибка инвалидации возвращает сообщение в очередь, событие нельзя терять —
// иначе резолвер продолжит отдавать устаревший тариф до конца TTL.
func (l *Listener) Handle(body []byte) error {
	const op = "tierevents.Handle"
	var event models.TierChange
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := l.invalidator.Invalidate(event.Username); err != nil {
		l.log.Error("failed to invalidate profile cache", sl.Err(err),
			slog.String("username", event.Username))
		return fmt.Errorf("%s: %w", op, err)
	}

	l.log.Info("tier change applied",
		slog.String("username", event.Username),
		slog.String("old_tier", string(event.OldTier)),
		slog.String("new_tier", string(event.NewTier)))

	l.notify(event)
	return nil
}

// Subscribe возвращает канал событий для аккаунта и функцию отписки.
// Отписка детерминированная: после её вызова канал закрыт и удалён,
// повисших слушателей не остаётся.
func (l *Listener) Subscribe(accountUID string) (<-chan models.TierChange, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++

	ch := make(chan models.TierChange, 1)
	if l.subs[accountUID] == nil {
		l.subs[accountUID] = make(map[int]chan models.TierChange)
	}
	l.subs[accountUID][id] = ch

	unsubscribe := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[accountUID][id]; ok {
			delete(l.subs[accountUID], id)
			if len(l.subs[accountUID]) == 0 {
				delete(l.subs, accountUID)
			}
			close(sub)
		}
	}
	return ch, unsubscribe
}

// notify раздаёт событие подписчикам аккаунта без блокировки:
// медленный подписчик пропускает событие, актуальный тариф он всё равно
// получит из резолвера.
func (l *Listener) notify(event models.TierChange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[event.AccountUID] {
		select {
		case ch <- event:
		default:
		}
	}
}
