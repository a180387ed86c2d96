package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arteemmka/reelkit/internal/models"
)

// ErrLimitNotFound возвращается, когда для пары (тариф, фича) нет строки лимита.
// Отсутствие лимита трактуется вызывающим как нулевая квота, не как безлимит.
var ErrLimitNotFound = errors.New("feature limit not found")

// GetFeatureLimit возвращает квоту для пары (тариф, фича).
// Таблица tier_feature_limits — справочник, заполняется миграцией-сидом;
// нулевая квота бесплатного тарифа хранится там же, отдельного
// захардкоженного правила для free нет.
func (s *Storage) GetFeatureLimit(ctx context.Context, tier models.Tier, featureName string) (int, error) {
	const op = "storage.GetFeatureLimit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT feature_limit
			  FROM tier_feature_limits
			  WHERE tier = $1 AND feature_name = $2`
	var limit int
	if err := s.DB.QueryRowContext(ctx, query, string(tier), featureName).Scan(&limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrLimitNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return limit, nil
}
