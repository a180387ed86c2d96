// Package metering реализует квотирование скачиваний по биллинговым периодам.
//
// Авторитетный счётчик — запрос в базу; декремент в памяти лишь
// консультативный кеш. Любая ошибка чтения или записи трактуется как
// отказ (fail-closed): лучше временно отказать, чем раздать лишние
// скачивания, повтор инициирует сам пользователь.
package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arteemmka/reelkit/internal/lib/period"
	"github.com/arteemmka/reelkit/internal/lib/sl"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/storage/repository"
)

// ErrLimitCheckFailed — временная ошибка при подсчёте квоты; трактуется
// как canDownload=false, повтор на стороне пользователя.
var ErrLimitCheckFailed = errors.New("limit check failed")

// ErrLimitExhausted — квота периода исчерпана; не ошибка бэкенда,
// показывается с призывом к апгрейду.
var ErrLimitExhausted = errors.New("download limit exhausted")

// ErrRecordFailed — вставка записи о скачивании не удалась;
// действие не считается списанным.
var ErrRecordFailed = errors.New("failed to record download")

// MeteringRepository определяет методы хранилища, нужные для квотирования.
type MeteringRepository interface {
	// GetAccount возвращает аккаунт по UID.
	GetAccount(ctx context.Context, accountUID string) (*models.Account, error)
	// GetActivePeriod возвращает активный биллинговый период.
	GetActivePeriod(ctx context.Context, accountUID string) (*models.SubscriptionPeriod, error)
	// GetFeatureLimit возвращает квоту для пары (тариф, фича).
	GetFeatureLimit(ctx context.Context, tier models.Tier, featureName string) (int, error)
	// CountDownloads считает скачивания в окне [start, end).
	CountDownloads(ctx context.Context, accountUID string, start, end time.Time) (int, error)
	// InsertDownload вставляет запись о списанном скачивании.
	InsertDownload(ctx context.Context, rec models.DownloadRecord) error
}

// Service реализует проверку и списание квоты скачиваний.
type Service struct {
	repo        MeteringRepository
	callTimeout time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// New создает новый Service. callTimeout ограничивает каждое обращение
// к хранилищу; по таймауту срабатывает fail-closed.
func New(repo MeteringRepository, callTimeout time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		callTimeout: callTimeout,
		log:         log,
		now:         time.Now,
	}
}

// CheckLimits возвращает состояние квоты скачиваний аккаунта.
// Отсутствие строки лимита — нулевая квота, не безлимит. Нулевая квота
// бесплатного тарифа приходит из той же таблицы лимитов (сид миграции).
func (s *Service) CheckLimits(ctx context.Context, accountUID string) (*models.LimitStatus, error) {
	const op = "metering.CheckLimits"
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	account, err := s.repo.GetAccount(ctx, accountUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLimitCheckFailed, err)
	}

	limit, err := s.repo.GetFeatureLimit(ctx, account.Tier, models.FeatureVideoDownloads)
	if err != nil {
		if errors.Is(err, repository.ErrLimitNotFound) {
			s.log.Warn("no feature limit configured, denying",
				slog.String("tier", string(account.Tier)),
				slog.String("feature", models.FeatureVideoDownloads))
			limit = 0
		} else {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrLimitCheckFailed, err)
		}
	}

	window, err := s.billingWindow(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLimitCheckFailed, err)
	}

	count, err := s.repo.CountDownloads(ctx, accountUID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLimitCheckFailed, err)
	}

	remaining := limit - count
	return &models.LimitStatus{
		CanDownload: remaining > 0,
		Remaining:   remaining,
		Limit:       limit,
		Tier:        account.Tier,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
	}, nil
}

// RecordDownload списывает одно скачивание: период выводится заново,
// квота перепроверяется по базе и запись вставляется со штампом границ
// периода. Перепроверка консультативная: гонка двух вкладок может
// увести remaining в минус, это принятое ограниченное поведение.
func (s *Service) RecordDownload(ctx context.Context, accountUID, resourceRef string) error {
	const op = "metering.RecordDownload"

	status, err := s.CheckLimits(ctx, accountUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !status.CanDownload {
		return fmt.Errorf("%s: %w", op, ErrLimitExhausted)
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	rec := models.DownloadRecord{
		AccountUID:   accountUID,
		ResourceRef:  resourceRef,
		PeriodStart:  status.PeriodStart,
		PeriodEnd:    status.PeriodEnd,
		DownloadedAt: s.now(),
	}
	if err := s.repo.InsertDownload(ctx, rec); err != nil {
		s.log.Error("failed to insert download record", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrRecordFailed, err)
	}

	s.log.Info("download recorded",
		slog.String("account_uid", accountUID),
		slog.String("resource_ref", resourceRef),
		slog.Int("remaining_before", status.Remaining))
	return nil
}

// billingWindow возвращает активное биллинговое окно аккаунта или
// льготный период от даты создания, если активной подписки нет.
func (s *Service) billingWindow(ctx context.Context, account *models.Account) (period.Window, error) {
	p, err := s.repo.GetActivePeriod(ctx, account.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActivePeriod) {
			return period.Grace(account.CreatedAt), nil
		}
		return period.Window{}, err
	}
	return period.FromSubscription(p.Start, p.End), nil
}
