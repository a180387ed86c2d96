// Package profile реализует резолвер сессии: по имени пользователя из
// проверенного токена возвращает идентификатор аккаунта и актуальный тариф.
//
// Результат кешируется на короткий TTL; кеш инвалидируется при выходе
// из системы и по событию смены тарифа. Ошибка бэкенда никогда не
// превращается в тариф по умолчанию — вызывающий обязан отказать в доступе.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/storage/repository"
)

// ErrUnauthenticated означает отсутствие валидной личности: аккаунта нет.
// Показывается как "sign in required", не как отказ по тарифу.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrResolutionFailed означает временную ошибку бэкенда при разрешении
// личности. Вызывающий отказывает в доступе, повтор на стороне пользователя.
var ErrResolutionFailed = errors.New("profile resolution failed")

// AccountRepository определяет чтение аккаунта из хранилища.
type AccountRepository interface {
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// Cache описывает методы для кэширования профиля.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Resolver разрешает личность вызывающего с кешированием.
type Resolver struct {
	repo        AccountRepository
	cache       Cache
	cacheTTL    time.Duration
	callTimeout time.Duration
	log         *slog.Logger
}

// New создает новый Resolver. callTimeout ограничивает каждое обращение
// к хранилищу; по таймауту срабатывает fail-closed.
func New(repo AccountRepository, cache Cache, cacheTTL, callTimeout time.Duration, log *slog.Logger) *Resolver {
	return &Resolver{
		repo:        repo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		callTimeout: callTimeout,
		log:         log,
	}
}

// CacheKey возвращает ключ кеша профиля для имени пользователя.
// Ключ общий для резолвера и слушателя смены тарифа.
func CacheKey(username string) string {
	return fmt.Sprintf("profile:%s", username)
}

// Resolve возвращает профиль по имени пользователя.
// Отсутствие аккаунта — ErrUnauthenticated, ошибка бэкенда — ErrResolutionFailed;
// ни одна из них не мапится на какой-либо тариф.
func (r *Resolver) Resolve(ctx context.Context, username string) (*models.Profile, error) {
	const op = "profile.Resolve"
	if username == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	key := CacheKey(username)
	var cached models.Profile
	found, err := r.cache.Get(key, &cached)
	if err != nil {
		r.log.Warn("profile cache read failed", slog.String("key", key), sl.Err(err))
	}
	if found && err == nil {
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	account, err := r.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrResolutionFailed, err)
	}

	p := &models.Profile{
		AccountUID: account.UID,
		Username:   account.Username,
		Tier:       account.Tier,
	}
	if err := r.cache.Set(key, p, r.cacheTTL); err != nil {
		r.log.Warn("failed to cache profile", slog.String("key", key), sl.Err(err))
	}
	return p, nil
}

// Invalidate сбрасывает кешированный профиль: выход из системы
// или событие смены тарифа.
func (r *Resolver) Invalidate(username string) error {
	const op = "profile.Invalidate"
	if err := r.cache.Invalidate(CacheKey(username)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
