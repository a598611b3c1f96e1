package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// hitScript prunes, counts, and conditionally appends in one round trip so
// concurrent replicas never over-admit. Scores are unix milliseconds.
var hitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return {count, 0}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {count + 1, 1}
`)

// KeyHasher maps a client identifier to the opaque suffix used in Redis keys.
type KeyHasher interface {
	Key(id string) string
}

// RedisStore keeps request logs in Redis sorted sets shared by all replicas.
type RedisStore struct {
	client   redis.Scripter
	prefix   string
	hasher   KeyHasher
	instance string
	seq      atomic.Uint64
}

// NewRedisStore creates a RedisStore. Keys are prefix + hasher.Key(client).
func NewRedisStore(client redis.Scripter, prefix string, hasher KeyHasher) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		hasher:   hasher,
		instance: uuid.NewString(),
	}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int, bool, error) {
	member := s.instance + ":" + strconv.FormatUint(s.seq.Add(1), 10)
	res, err := hitScript.Run(
		ctx,
		s.client,
		[]string{s.redisKey(key)},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		member,
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis sliding window: unexpected reply %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *RedisStore) redisKey(key string) string {
	if s.hasher == nil {
		return s.prefix + key
	}
	return s.prefix + s.hasher.Key(key)
}
