package check

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/services/metering"
)

// MockService реализует интерфейс check.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) CheckLimits(ctx context.Context, accountUID string) (*models.LimitStatus, error) {
	args := m.Called(ctx, accountUID)
	if res := args.Get(0); res != nil {
		return res.(*models.LimitStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCheckHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	periodStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		accountUID     string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "квота доступна",
			accountUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("CheckLimits", mock.Anything, "uid-1").Return(&models.LimitStatus{
					CanDownload: true,
					Remaining:   3,
					Limit:       5,
					Tier:        models.TierStarter,
					PeriodStart: periodStart,
					PeriodEnd:   periodStart.AddDate(0, 1, 0),
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"remaining":3`,
		},
		{
			name:       "квота исчерпана возвращается как данные",
			accountUID: "uid-2",
			setupMock: func(m *MockService) {
				m.On("CheckLimits", mock.Anything, "uid-2").Return(&models.LimitStatus{
					CanDownload: false,
					Remaining:   0,
					Limit:       0,
					Tier:        models.TierFree,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"can_download":false`,
		},
		{
			name:       "сбой проверки лимитов",
			accountUID: "uid-3",
			setupMock: func(m *MockService) {
				m.On("CheckLimits", mock.Anything, "uid-3").
					Return(nil, metering.ErrLimitCheckFailed)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"could not check download limits, try again"`,
		},
		{
			name:           "нет UID аккаунта в контексте",
			accountUID:     "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"sign in required"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/downloads/limits", nil)
			if tt.accountUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.AccountUID, tt.accountUID)
				req = req.WithContext(ctx)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
