// internal/assessment/store/store_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-advisor/internal/common/logger"
	"print-advisor/internal/models"
)

const testKey = "assessment:progress:test-session"

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, testKey, models.ProgressTTL, logger.NewTestLogger(t)), mr
}

func sampleDraft() *models.AssessmentDraft {
	return &models.AssessmentDraft{
		BusinessProfile: models.BusinessProfile{
			Industry:      models.IndustryEducation,
			OrgSize:       models.OrgSizeLarge,
			EmployeeCount: 120,
			Location:      "Eindhoven",
		},
		PrintVolume: models.PrintVolume{
			MonthlyA4:     9000,
			MonthlyA3:     300,
			ColourPercent: 45,
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, sampleDraft(), 3)

	got := s.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.CurrentStep)
	assert.Equal(t, sampleDraft(), got.Data)
	assert.InDelta(t, time.Now().UnixMilli(), got.Timestamp, float64(5*time.Second.Milliseconds()))
}

func TestStore_LoadAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Nil(t, s.Load(context.Background()))
}

func TestStore_ExpiredRecordPurged(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	// Snapshot written "25 hours ago".
	s.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	s.Save(ctx, sampleDraft(), 2)

	s.now = time.Now
	assert.Nil(t, s.Load(ctx))
	assert.False(t, mr.Exists(testKey), "expired record must be purged, not kept")
}

func TestStore_JustInsideExpiryWindow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.now = func() time.Time { return time.Now().Add(-23 * time.Hour) }
	s.Save(ctx, sampleDraft(), 5)

	s.now = time.Now
	got := s.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.CurrentStep)
}

func TestStore_MalformedRecordPurged(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(testKey, "{not json"))
	assert.Nil(t, s.Load(ctx))
	assert.False(t, mr.Exists(testKey))
}

func TestStore_RecordWithoutDataPurged(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(testKey, `{"currentStep":2,"timestamp":1}`))
	assert.Nil(t, s.Load(ctx))
	assert.False(t, mr.Exists(testKey))
}

func TestStore_Clear(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, sampleDraft(), 1)
	require.True(t, mr.Exists(testKey))

	s.Clear(ctx)
	assert.False(t, mr.Exists(testKey))
	assert.Nil(t, s.Load(ctx))
}

func TestStore_LastWriteWins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, sampleDraft(), 1)
	second := sampleDraft()
	second.PrintVolume.MonthlyA4 = 20000
	s.Save(ctx, second, 4)

	got := s.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.CurrentStep)
	assert.Equal(t, 20000, got.Data.PrintVolume.MonthlyA4)
}

// ==========================
// Degradation paths
// ==========================

func TestStore_SaveFailureIsSilent(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, testKey, models.ProgressTTL, logger.NewTestLogger(t))

	mock.Regexp().ExpectSet(testKey, `.*`, models.ProgressTTL).
		SetErr(assert.AnError)

	// Must not panic or surface the failure.
	s.Save(context.Background(), sampleDraft(), 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ReadFailureDegradesToAbsent(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, testKey, models.ProgressTTL, logger.NewTestLogger(t))

	mock.ExpectGet(testKey).SetErr(assert.AnError)

	assert.Nil(t, s.Load(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
