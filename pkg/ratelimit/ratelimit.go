package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Decision 요청 한 건에 대한 판정
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// RetryAfter 다시 시도할 수 있을 때까지 남은 시간 (최소 1초)
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait
}

// Limiter key별 요청 제한
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// TokenBucket window 동안 limit개의 토큰이 고르게 채워지는 버킷
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // 초당 토큰
	lastRefill time.Time
	lastUsed   time.Time
}

// NewTokenBucket 가득 찬 버킷 생성
func NewTokenBucket(limit int, window time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(limit),
		tokens:     float64(limit),
		refillRate: float64(limit) / window.Seconds(),
		lastRefill: now,
		lastUsed:   now,
	}
}

// Take 토큰 n개 소비 시도. 남은 토큰과 가득 찰 때까지의 시간도 반환.
func (tb *TokenBucket) Take(n int, now time.Time) (bool, int, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	tb.lastUsed = now

	allowed := tb.tokens >= float64(n)
	if allowed {
		tb.tokens -= float64(n)
	}
	untilFull := time.Duration((tb.capacity - tb.tokens) / tb.refillRate * float64(time.Second))
	return allowed, int(math.Floor(tb.tokens)), untilFull
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastUsed)
}

// MemoryLimiter 프로세스 안에서만 유효한 key별 토큰 버킷
type MemoryLimiter struct {
	mu        sync.RWMutex
	buckets   map[string]*TokenBucket
	limit     int
	window    time.Duration
	idleAfter time.Duration
	now       func() time.Time
}

// NewMemoryLimiter window당 limit회 허용
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:   make(map[string]*TokenBucket),
		limit:     limit,
		window:    window,
		idleAfter: 2 * window,
		now:       time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()
	allowed, remaining, untilFull := l.bucket(key, now).Take(1, now)
	return Decision{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   now.Add(untilFull),
	}, nil
}

func (l *MemoryLimiter) bucket(key string, now time.Time) *TokenBucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = NewTokenBucket(l.limit, l.window, now)
	l.buckets[key] = b
	return b
}

// Reset key의 버킷 제거
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Cleanup 오래 쓰이지 않은 버킷 정리. 제거한 개수 반환.
func (l *MemoryLimiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.idleSince(now) > l.idleAfter {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Run ctx가 끝날 때까지 주기적으로 Cleanup
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Size 현재 버킷 수
func (l *MemoryLimiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}
