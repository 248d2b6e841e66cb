package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fitdiary/internal/models"
)

const defaultCacheTTL = 5 * time.Minute

// CachedStore caches range queries in Redis. Every cached range of a user is
// keyed under that user's generation counter, and Save bumps the counter, so
// older ranges are never read again and expire with their TTL. Redis failures
// are logged and fall through to the wrapped store.
type CachedStore struct {
	inner  RecordStore
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(inner RecordStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func genKey(userID int) string {
	return fmt.Sprintf("fitdiary:entries:%d:gen", userID)
}

func rangeKey(userID int, gen int64, start, end string) string {
	return fmt.Sprintf("fitdiary:entries:%d:g%d:%s:%s", userID, gen, start, end)
}

func (s *CachedStore) Save(ctx context.Context, userID int, r models.HealthRecord) error {
	if err := s.inner.Save(ctx, userID, r); err != nil {
		return err
	}
	if err := s.rdb.Incr(ctx, genKey(userID)).Err(); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Int("user_id", userID), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) Query(ctx context.Context, userID int, start, end string) ([]models.HealthRecord, error) {
	gen, err := s.rdb.Get(ctx, genKey(userID)).Int64()
	if err == redis.Nil {
		gen, err = 0, nil
	}
	if err != nil {
		s.logger.Warn("cache generation lookup failed", zap.Int("user_id", userID), zap.Error(err))
		return s.inner.Query(ctx, userID, start, end)
	}

	key := rangeKey(userID, gen, start, end)
	if b, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []models.HealthRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	out, err := s.inner.Query(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
			s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}
