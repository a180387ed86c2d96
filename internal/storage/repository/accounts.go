package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arteemmka/reelkit/internal/models"
)

// ErrAccountNotFound возвращается, когда аккаунт отсутствует в базе.
var ErrAccountNotFound = errors.New("account not found")

// RegisterAccount сохраняет новый аккаунт и возвращает его UID.
func (s *Storage) RegisterAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.RegisterAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO accounts (email, username, password_hash, role, subscription_tier)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.Username, account.PasswordHash, account.Role,
		string(account.Tier)).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccountByUsername возвращает аккаунт по его username.
func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage.GetAccountByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_tier, created_at
			  FROM accounts
			  WHERE username = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, username), op)
}

// GetAccount возвращает аккаунт по его UID.
func (s *Storage) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, subscription_tier, created_at
			  FROM accounts
			  WHERE uid = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, accountUID), op)
}

// UpdateAccountTier меняет тариф аккаунта и возвращает количество изменённых строк.
// Вызывается только административным действием, пользовательские потоки тариф не пишут.
func (s *Storage) UpdateAccountTier(ctx context.Context, username string, tier models.Tier) (int, error) {
	const op = "storage.UpdateAccountTier"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts SET subscription_tier = $1 WHERE username = $2`
	result, err := s.DB.ExecContext(ctx, query, string(tier), username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

func (s *Storage) scanAccount(row *sql.Row, op string) (*models.Account, error) {
	a := &models.Account{}
	var tier string
	if err := row.Scan(&a.UID, &a.Email, &a.Username, &a.PasswordHash,
		&a.Role, &tier, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	parsed, err := models.ParseTier(tier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Tier = parsed
	return a, nil
}
