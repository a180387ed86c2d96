package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arteemmka/reelkit/internal/models"
)

// ErrNoActivePeriod возвращается, когда у аккаунта нет активного
// биллингового периода; вызывающий выводит льготное окно.
var ErrNoActivePeriod = errors.New("no active subscription period")

// GetActivePeriod возвращает активный биллинговый период аккаунта.
// Строки в subscription_periods пишет платёжный коллаборатор, здесь только чтение.
func (s *Storage) GetActivePeriod(ctx context.Context, accountUID string) (*models.SubscriptionPeriod, error) {
	const op = "storage.GetActivePeriod"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT account_uid, current_period_start, current_period_end, status
			  FROM subscription_periods
			  WHERE account_uid = $1 AND status = 'active'
			  ORDER BY current_period_end DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, accountUID)

	var p models.SubscriptionPeriod
	if err := row.Scan(&p.AccountUID, &p.Start, &p.End, &p.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActivePeriod)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}
