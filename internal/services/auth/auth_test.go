package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/arteemmka/reelkit/internal/lib/jwt"
	"github.com/arteemmka/reelkit/internal/lib/password"
	"github.com/arteemmka/reelkit/internal/models"
	services "github.com/arteemmka/reelkit/internal/services/auth"
)

// Мок для AccountRepository
type AccountRepoMock struct {
	mock.Mock
}

func (m *AccountRepoMock) RegisterAccount(ctx context.Context, account models.Account) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username, role, accountUID string) (string, error) {
	args := m.Called(username, role, accountUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		username   string
		password   string
		setupMocks func(r *AccountRepoMock)
		wantUID    string
		wantErr    bool
	}{
		{
			name:     "successful registration with free tier",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("RegisterAccount", mock.Anything, mock.MatchedBy(func(a models.Account) bool {
					return a.Email == "test@example.com" &&
						a.Username == "testuser" &&
						a.PasswordHash != "" &&
						a.Role == "user" &&
						a.Tier == models.TierFree
				})).Return("some-uuid-string", nil).Once()
			},
			wantUID: "some-uuid-string",
			wantErr: false,
		},
		{
			name:     "repository error",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *AccountRepoMock) {
				r.On("RegisterAccount", mock.Anything, mock.Anything).
					Return("", errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			tt.setupMocks(repo)
			svc := services.NewAuthService(repo, new(JwtMakerMock))

			uid, err := svc.Register(context.Background(), tt.email, tt.username, tt.password)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("correct-password")
	require.NoError(t, err)

	account := &models.Account{
		UID:          "uid-1",
		Username:     "testuser",
		PasswordHash: hash,
		Role:         "user",
		Tier:         models.TierStarter,
	}

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *AccountRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    bool
	}{
		{
			name:     "successful login",
			password: "correct-password",
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				r.On("GetAccountByUsername", mock.Anything, "testuser").Return(account, nil).Once()
				j.On("GenerateToken", "testuser", "user", "uid-1").Return("token-123", nil).Once()
			},
			wantToken: "token-123",
		},
		{
			name:     "неверный пароль",
			password: "wrong-password",
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("GetAccountByUsername", mock.Anything, "testuser").Return(account, nil).Once()
			},
			wantErr: true,
		},
		{
			name:     "аккаунт не найден",
			password: "correct-password",
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("GetAccountByUsername", mock.Anything, "testuser").
					Return(nil, errors.New("not found")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := services.NewAuthService(repo, maker)

			token, role, err := svc.Login(context.Background(), "testuser", tt.password)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, "user", role)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}
