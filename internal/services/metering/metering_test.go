package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arteemmka/reelkit/internal/models"
	"github.com/arteemmka/reelkit/internal/storage/repository"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetAccount(ctx context.Context, accountUID string) (*models.Account, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) GetActivePeriod(ctx context.Context, accountUID string) (*models.SubscriptionPeriod, error) {
	args := m.Called(ctx, accountUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPeriod), args.Error(1)
}

func (m *RepoMock) GetFeatureLimit(ctx context.Context, tier models.Tier, featureName string) (int, error) {
	args := m.Called(ctx, tier, featureName)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountDownloads(ctx context.Context, accountUID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, accountUID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) InsertDownload(ctx context.Context, rec models.DownloadRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

var (
	createdAt   = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	periodStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
)

func newTestService(repo *RepoMock) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(repo, 5*time.Second, logger)
}

func starterAccount() *models.Account {
	return &models.Account{UID: "uid-1", Username: "alice", Tier: models.TierStarter, CreatedAt: createdAt}
}

func activePeriod() *models.SubscriptionPeriod {
	return &models.SubscriptionPeriod{AccountUID: "uid-1", Start: periodStart, End: periodEnd, Status: "active"}
}

func TestService_CheckLimits(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(r *RepoMock)
		want        *models.LimitStatus
		wantErr     error
	}{
		{
			name: "starter со свежим периодом, лимит 5",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
				r.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
				r.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).Return(0, nil)
			},
			want: &models.LimitStatus{
				CanDownload: true, Remaining: 5, Limit: 5, Tier: models.TierStarter,
				PeriodStart: periodStart, PeriodEnd: periodEnd,
			},
		},
		{
			name: "квота исчерпана",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
				r.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
				r.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).Return(5, nil)
			},
			want: &models.LimitStatus{
				CanDownload: false, Remaining: 0, Limit: 5, Tier: models.TierStarter,
				PeriodStart: periodStart, PeriodEnd: periodEnd,
			},
		},
		{
			name: "free тариф: нулевая квота из таблицы лимитов",
			setupMocks: func(r *RepoMock) {
				free := &models.Account{UID: "uid-1", Username: "alice", Tier: models.TierFree, CreatedAt: createdAt}
				r.On("GetAccount", mock.Anything, "uid-1").Return(free, nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierFree, models.FeatureVideoDownloads).Return(0, nil)
				r.On("GetActivePeriod", mock.Anything, "uid-1").
					Return(nil, fmt.Errorf("storage.GetActivePeriod: %w", repository.ErrNoActivePeriod))
				r.On("CountDownloads", mock.Anything, "uid-1", createdAt, createdAt.AddDate(0, 0, 30)).Return(0, nil)
			},
			want: &models.LimitStatus{
				CanDownload: false, Remaining: 0, Limit: 0, Tier: models.TierFree,
				PeriodStart: createdAt, PeriodEnd: createdAt.AddDate(0, 0, 30),
			},
		},
		{
			name: "нет строки лимита — нулевая квота, не безлимит",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).
					Return(0, fmt.Errorf("storage.GetFeatureLimit: %w", repository.ErrLimitNotFound))
				r.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
				r.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).Return(0, nil)
			},
			want: &models.LimitStatus{
				CanDownload: false, Remaining: 0, Limit: 0, Tier: models.TierStarter,
				PeriodStart: periodStart, PeriodEnd: periodEnd,
			},
		},
		{
			name: "нет активного периода — льготное окно от создания аккаунта",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
				r.On("GetActivePeriod", mock.Anything, "uid-1").
					Return(nil, fmt.Errorf("storage.GetActivePeriod: %w", repository.ErrNoActivePeriod))
				r.On("CountDownloads", mock.Anything, "uid-1", createdAt, createdAt.AddDate(0, 0, 30)).Return(2, nil)
			},
			want: &models.LimitStatus{
				CanDownload: true, Remaining: 3, Limit: 5, Tier: models.TierStarter,
				PeriodStart: createdAt, PeriodEnd: createdAt.AddDate(0, 0, 30),
			},
		},
		{
			name: "ошибка базы при подсчёте — fail-closed",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
				r.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
				r.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
				r.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).
					Return(0, errors.New("connection refused"))
			},
			wantErr: ErrLimitCheckFailed,
		},
		{
			name: "ошибка чтения аккаунта — fail-closed",
			setupMocks: func(r *RepoMock) {
				r.On("GetAccount", mock.Anything, "uid-1").Return(nil, errors.New("connection refused"))
			},
			wantErr: ErrLimitCheckFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := newTestService(repo)

			got, err := svc.CheckLimits(context.Background(), "uid-1")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

// countingRepo — ручной стаб: счётчик растёт на каждой вставке,
// имитируя авторитетный подсчёт по базе.
type countingRepo struct {
	limit   int
	count   int
	records []models.DownloadRecord
}

func (r *countingRepo) GetAccount(_ context.Context, _ string) (*models.Account, error) {
	return starterAccount(), nil
}

func (r *countingRepo) GetActivePeriod(_ context.Context, _ string) (*models.SubscriptionPeriod, error) {
	return activePeriod(), nil
}

func (r *countingRepo) GetFeatureLimit(_ context.Context, _ models.Tier, _ string) (int, error) {
	return r.limit, nil
}

func (r *countingRepo) CountDownloads(_ context.Context, _ string, start, end time.Time) (int, error) {
	count := 0
	for _, rec := range r.records {
		if !rec.DownloadedAt.Before(start) && rec.DownloadedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

func (r *countingRepo) InsertDownload(_ context.Context, rec models.DownloadRecord) error {
	r.records = append(r.records, rec)
	r.count++
	return nil
}

func TestService_QuotaMonotonicity(t *testing.T) {
	// После N успешных списаний при N < limit остаётся limit-N;
	// при N = limit скачивание запрещено.
	const limit = 5
	repo := &countingRepo{limit: limit}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := New(repo, 5*time.Second, logger)
	svc.now = func() time.Time { return periodStart.AddDate(0, 0, 1) }

	for i := 0; i < limit; i++ {
		status, err := svc.CheckLimits(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.True(t, status.CanDownload)
		assert.Equal(t, limit-i, status.Remaining)

		require.NoError(t, svc.RecordDownload(context.Background(), "uid-1", fmt.Sprintf("clip-%d", i)))
	}

	status, err := svc.CheckLimits(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.False(t, status.CanDownload)
	assert.Equal(t, 0, status.Remaining)

	// Шестое списание отклоняется до вставки.
	err = svc.RecordDownload(context.Background(), "uid-1", "clip-6")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLimitExhausted)
	assert.Equal(t, limit, repo.count, "authoritative count must not exceed the limit")
}

func TestService_RolloverIgnoresOldRecords(t *testing.T) {
	// Запись со штампом до начала окна не учитывается в текущем периоде.
	repo := &countingRepo{limit: 5}
	repo.records = append(repo.records, models.DownloadRecord{
		AccountUID:   "uid-1",
		ResourceRef:  "old-clip",
		DownloadedAt: periodStart.Add(-time.Hour),
	})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := New(repo, 5*time.Second, logger)

	status, err := svc.CheckLimits(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 5, status.Remaining)
	assert.True(t, status.CanDownload)
}

func TestService_RecordDownload(t *testing.T) {
	t.Run("запись штампуется границами переведённого периода", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(repo)
		downloadedAt := periodStart.AddDate(0, 0, 10)
		svc.now = func() time.Time { return downloadedAt }

		repo.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
		repo.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
		repo.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
		repo.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).Return(1, nil)
		repo.On("InsertDownload", mock.Anything, models.DownloadRecord{
			AccountUID:   "uid-1",
			ResourceRef:  "clip-42",
			PeriodStart:  periodStart,
			PeriodEnd:    periodEnd,
			DownloadedAt: downloadedAt,
		}).Return(nil).Once()

		require.NoError(t, svc.RecordDownload(context.Background(), "uid-1", "clip-42"))
		repo.AssertExpectations(t)
	})

	t.Run("ошибка вставки — действие не считается списанным", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(repo)

		repo.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
		repo.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
		repo.On("GetActivePeriod", mock.Anything, "uid-1").Return(activePeriod(), nil)
		repo.On("CountDownloads", mock.Anything, "uid-1", periodStart, periodEnd).Return(1, nil)
		repo.On("InsertDownload", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()

		err := svc.RecordDownload(context.Background(), "uid-1", "clip-42")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRecordFailed)
	})
}

func TestService_PeriodRollover(t *testing.T) {
	// Скачивания, списанные в прошлом периоде, не попадают в окно текущего:
	// авторитетный счётчик фильтрует по [periodStart, periodEnd).
	repo := new(RepoMock)
	svc := newTestService(repo)

	nextStart := periodEnd
	nextEnd := periodEnd.AddDate(0, 1, 0)
	rolled := &models.SubscriptionPeriod{AccountUID: "uid-1", Start: nextStart, End: nextEnd, Status: "active"}

	repo.On("GetAccount", mock.Anything, "uid-1").Return(starterAccount(), nil)
	repo.On("GetFeatureLimit", mock.Anything, models.TierStarter, models.FeatureVideoDownloads).Return(5, nil)
	repo.On("GetActivePeriod", mock.Anything, "uid-1").Return(rolled, nil)
	// В новом окне нет ни одной записи, хотя в старом их было 5.
	repo.On("CountDownloads", mock.Anything, "uid-1", nextStart, nextEnd).Return(0, nil)

	status, err := svc.CheckLimits(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.True(t, status.CanDownload)
	assert.Equal(t, 5, status.Remaining)
}
