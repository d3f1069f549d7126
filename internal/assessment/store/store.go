// internal/assessment/store/store.go
package store

import (
	"context"
	"encoding/json"
	"time"

	stderrors "print-advisor/internal/common/errors"
	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/metrics"
	"print-advisor/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store persists in-progress drafts so a session can resume later. It is a
// cache, not a source of truth: every failure degrades to "no stored
// progress" and is never surfaced to the caller.
type Store interface {
	// Save snapshots {draft, step, now}. Fire-and-forget.
	Save(ctx context.Context, draft *models.AssessmentDraft, step int)
	// Load returns the stored snapshot, or nil when absent, malformed or
	// expired. Malformed and expired records are purged.
	Load(ctx context.Context) *models.StoredProgress
	// Clear removes the stored record unconditionally.
	Clear(ctx context.Context)
}

// RedisStore keeps one snapshot per session under a well-known key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, key string, ttl time.Duration, log logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = models.ProgressTTL
	}
	return &RedisStore{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "progress-store"}),
		now:    time.Now,
	}
}

func (s *RedisStore) Save(ctx context.Context, draft *models.AssessmentDraft, step int) {
	record := models.StoredProgress{
		Data:        draft,
		CurrentStep: step,
		Timestamp:   s.now().UnixMilli(),
	}

	payload, err := json.Marshal(&record)
	if err != nil {
		s.warnStoreFailure("marshal progress failed", err)
		return
	}

	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		s.warnStoreFailure("write progress failed", err)
	}
}

func (s *RedisStore) Load(ctx context.Context) *models.StoredProgress {
	payload, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err != redis.Nil {
			s.warnStoreFailure("read progress failed", err)
		}
		return nil
	}

	var record models.StoredProgress
	if err := json.Unmarshal([]byte(payload), &record); err != nil || record.Data == nil {
		details := "missing draft payload"
		if err != nil {
			details = err.Error()
		}
		s.logger.WithError(stderrors.NewProgressCorruptError(details)).Warn(
			"purging malformed progress record", map[string]interface{}{
				"key": s.key,
			})
		s.Clear(ctx)
		return nil
	}

	if record.IsExpired(s.now()) {
		s.logger.Info("purging expired progress record", map[string]interface{}{
			"savedAt": record.SavedAt(),
		})
		s.Clear(ctx)
		return nil
	}

	return &record
}

func (s *RedisStore) Clear(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.warnStoreFailure("clear progress failed", err)
	}
}

func (s *RedisStore) warnStoreFailure(msg string, err error) {
	metrics.ProgressStoreFailures.Inc()
	s.logger.WithError(stderrors.NewProgressStoreFailedError(err)).Warn(msg,
		map[string]interface{}{
			"key": s.key,
		})
}
