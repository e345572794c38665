package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpireScript increments the window counter and arms its expiry in a
// single atomic round trip. The expiry is set only on the first increment;
// the bucket key already encodes the window start, so a fresh key always
// means a fresh window.
var incrExpireScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisStore is the shared counter backend for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces all counter keys.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisClock overrides the time source.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "ratelimit",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IncrementAndGet bumps the counter for key's current wall-clock window.
// The bucket key encodes the aligned window start so all instances agree
// on window boundaries without coordination.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()
	start, end := windowBounds(now, window)

	bucketKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, start.Unix())
	ttl := end.Sub(now).Milliseconds()
	if ttl < 1 {
		ttl = 1
	}

	count, err := incrExpireScript.Run(ctx, s.client, []string{bucketKey}, ttl).Int64()
	if err != nil {
		return 0, time.Time{}, err
	}

	return count, end, nil
}
