package record

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/arteemmka/reelkit/internal/http/middlewarectx"
	"github.com/arteemmka/reelkit/internal/services/metering"
)

// MockService реализует интерфейс record.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RecordDownload(ctx context.Context, accountUID, resourceRef string) error {
	args := m.Called(ctx, accountUID, resourceRef)
	return args.Error(0)
}

func TestRecordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		accountUID     string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "успешное списание",
			accountUID: "uid-1",
			body:       `{"resource_ref":"video-42"}`,
			setupMock: func(m *MockService) {
				m.On("RecordDownload", mock.Anything, "uid-1", "video-42").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"resource_ref":"video-42"`,
		},
		{
			name:       "квота исчерпана",
			accountUID: "uid-2",
			body:       `{"resource_ref":"video-42"}`,
			setupMock: func(m *MockService) {
				m.On("RecordDownload", mock.Anything, "uid-2", "video-42").
					Return(metering.ErrLimitExhausted)
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedBody:   `"upgrade_url":"/pricing"`,
		},
		{
			name:       "недоступна проверка квоты",
			accountUID: "uid-3",
			body:       `{"resource_ref":"video-42"}`,
			setupMock: func(m *MockService) {
				m.On("RecordDownload", mock.Anything, "uid-3", "video-42").
					Return(metering.ErrLimitCheckFailed)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"could not check download limits, try again"`,
		},
		{
			name:       "ошибка записи скачивания",
			accountUID: "uid-4",
			body:       `{"resource_ref":"video-42"}`,
			setupMock: func(m *MockService) {
				m.On("RecordDownload", mock.Anything, "uid-4", "video-42").
					Return(errors.New("insert failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"failed to record download"`,
		},
		{
			name:           "пустой resource_ref не проходит валидацию",
			accountUID:     "uid-5",
			body:           `{"resource_ref":""}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:           "нет UID аккаунта в контексте",
			accountUID:     "",
			body:           `{"resource_ref":"video-42"}`,
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

			req := httptest.NewRequest(http.MethodPost, "/downloads", strings.NewReader(tt.body))
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
