package middlewarectx

import (
	"context"

	"github.com/arteemmka/reelkit/internal/lib/jwt"
	"github.com/arteemmka/reelkit/internal/models"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// ProfileResolver разрешает профиль пользователя по его имени.
type ProfileResolver interface {
	Resolve(ctx context.Context, username string) (*models.Profile, error)
}
