package distributed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// 자신이 잡은 락만 해제
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lock 획득된 분산 락 하나
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// LockManager Redis SET NX 기반 분산 락
type LockManager struct {
	client *redis.Client
	prefix string
}

// NewLockManager prefix 아래 키로 락을 관리
func NewLockManager(client *redis.Client, prefix string) *LockManager {
	return &LockManager{client: client, prefix: prefix}
}

// GenerationLockKey 이벤트/카테고리 단위 대진 생성 락 키
func GenerationLockKey(eventID string, categoryID *string) string {
	category := "none"
	if categoryID != nil {
		category = *categoryID
	}
	return fmt.Sprintf("generate:%s:%s", eventID, category)
}

// Acquire 락 획득 시도. 이미 잡혀 있으면 ErrLockNotAcquired.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	fullKey := m.prefix + key
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &Lock{client: m.client, key: fullKey, token: token}, nil
}

// Key 락 키 (prefix 포함)
func (l *Lock) Key() string {
	return l.key
}

// Release 락 해제
func (l *Lock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
