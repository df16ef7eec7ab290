package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vigiajus/vigiajus/internal/domain/cache"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/errors"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

const defaultKeyPrefix = "vigiajus:cache:"

// CacheStore is the Redis implementation of the cache.Store port.  Values
// are JSON documents under prefixed keys; Redis expires them natively, so
// DeleteExpired has nothing to do.
type CacheStore struct {
	rdb    redis.Cmdable
	prefix string
	logger logging.Logger
}

var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore builds a CacheStore on top of an established client.  An
// empty prefix falls back to the package default.
func NewCacheStore(client *Client, prefix string, logger logging.Logger) *CacheStore {
	return newCacheStore(client.Raw(), prefix, logger)
}

func newCacheStore(rdb redis.Cmdable, prefix string, logger logging.Logger) *CacheStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CacheStore{rdb: rdb, prefix: prefix, logger: logger}
}

func (s *CacheStore) fullKey(key string) string { return s.prefix + key }

// Get loads a cached query result.  A miss is reported as ErrCodeNotFound.
func (s *CacheStore) Get(ctx context.Context, key string) (*ptypes.ProcessQueryResult, error) {
	data, err := s.rdb.Get(ctx, s.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFound("resultado não está no cache persistente")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "falha ao ler do cache persistente")
	}

	var result ptypes.ProcessQueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry behaves like a miss after being dropped.
		s.rdb.Del(ctx, s.fullKey(key))
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "entrada de cache corrompida")
	}
	return &result, nil
}

// Set stores a query result under the given TTL.
func (s *CacheStore) Set(ctx context.Context, key string, result *ptypes.ProcessQueryResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "falha ao serializar resultado")
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "falha ao gravar no cache persistente")
	}
	return nil
}

// Delete drops one entry.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "falha ao remover do cache persistente")
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts entries by key TTL on its own.
func (s *CacheStore) DeleteExpired(ctx context.Context) (int, error) {
	return 0, nil
}
