package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/arteemmka/reelkit/internal/models"
)

// InsertDownload вставляет запись о списанном скачивании.
// Запись неизменяема: consistency отдельных вставок делегирована базе,
// клиентских блокировок нет.
func (s *Storage) InsertDownload(ctx context.Context, rec models.DownloadRecord) error {
	const op = "storage.InsertDownload"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO download_records (account_uid, resource_ref,
			      billing_period_start, billing_period_end, downloaded_at)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query,
		rec.AccountUID, rec.ResourceRef, rec.PeriodStart, rec.PeriodEnd,
		rec.DownloadedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountDownloads считает записи аккаунта с downloaded_at в окне [start, end).
// Это авторитетный счётчик для квоты.
func (s *Storage) CountDownloads(ctx context.Context, accountUID string, start, end time.Time) (int, error) {
	const op = "storage.CountDownloads"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM download_records
			  WHERE account_uid = $1
			    AND downloaded_at >= $2
			    AND downloaded_at < $3`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, accountUID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListDownloads возвращает записи о скачиваниях аккаунта с пагинацией,
// свежие первыми.
func (s *Storage) ListDownloads(ctx context.Context, accountUID string, limit, offset int) ([]*models.DownloadRecord, error) {
	const op = "storage.ListDownloads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT account_uid, resource_ref, billing_period_start, billing_period_end, downloaded_at
			  FROM download_records
			  WHERE account_uid = $1
			  ORDER BY downloaded_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, accountUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.DownloadRecord
	for rows.Next() {
		var rec models.DownloadRecord
		if err := rows.Scan(&rec.AccountUID, &rec.ResourceRef, &rec.PeriodStart,
			&rec.PeriodEnd, &rec.DownloadedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
