package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 토큰 버킷 (밀리초 단위). 반환: {allowed, remaining, ms until full}
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local state = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(state[1])
	local ts = tonumber(state[2])
	if tokens == nil then
		tokens = limit
		ts = now
	end

	local rate = limit / window
	tokens = math.min(limit, tokens + math.max(0, now - ts) * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', now)
	redis.call('PEXPIRE', key, window * 2)

	return {allowed, math.floor(tokens), math.ceil((limit - tokens) / rate)}
`)

// RedisLimiter 여러 인스턴스가 공유하는 Redis 토큰 버킷
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter window당 limit회 허용. 키는 prefix + key.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	res, err := tokenBucketScript.Run(ctx, r.client, []string{r.prefix + key},
		r.limit, r.window.Milliseconds(), now.UnixMilli()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit failed: %w", err)
	}
	if len(res) < 3 {
		return Decision{}, fmt.Errorf("invalid rate limit script result")
	}

	return Decision{
		Allowed:   res[0] == 1,
		Limit:     r.limit,
		Remaining: int(res[1]),
		ResetAt:   now.Add(time.Duration(res[2]) * time.Millisecond),
	}, nil
}

// Reset key의 상태 삭제
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}
