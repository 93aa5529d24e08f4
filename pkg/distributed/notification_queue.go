package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrQueueEmpty = errors.New("queue is empty")
	ErrQueueFull  = errors.New("queue is full")
)

// Notification 참가자 알림 발송 작업 하나
type Notification struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	EventID    string    `json:"eventId"`
	CategoryID *string   `json:"categoryId,omitempty"`
	MatchIDs   []string  `json:"matchIds,omitempty"`
	PairingIDs []string  `json:"pairingIds,omitempty"`
	Priority   int       `json:"priority"` // 높을수록 먼저
	Retries    int       `json:"retries"`
	MaxRetries int       `json:"maxRetries"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QueueStats 큐 상태
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

// 가장 높은 우선순위를 꺼내 processing 해시로 옮긴다
var dequeueScript = redis.NewScript(`
	local items = redis.call('ZPOPMIN', KEYS[1], 1)
	if #items == 0 then
		return nil
	end
	local id = cjson.decode(items[1]).id
	redis.call('HSET', KEYS[2], id, items[1])
	redis.call('HSET', KEYS[2], id .. ':at', ARGV[1])
	return items[1]
`)

// NotificationQueue 외부 발송기가 소비하는 Redis 우선순위 큐
type NotificationQueue struct {
	client        *redis.Client
	pendingKey    string // sorted set
	processingKey string // hash
	deadKey       string // list
	maxSize       int64  // 0이면 무제한
}

func NewNotificationQueue(client *redis.Client, name string, maxSize int64) *NotificationQueue {
	return &NotificationQueue{
		client:        client,
		pendingKey:    fmt.Sprintf("notify:%s", name),
		processingKey: fmt.Sprintf("notify:%s:processing", name),
		deadKey:       fmt.Sprintf("notify:%s:dead", name),
		maxSize:       maxSize,
	}
}

// Enqueue 알림 추가
func (q *NotificationQueue) Enqueue(ctx context.Context, n *Notification) error {
	if q.maxSize > 0 {
		size, err := q.client.ZCard(ctx, q.pendingKey).Result()
		if err != nil {
			return fmt.Errorf("failed to get queue size: %w", err)
		}
		if size >= q.maxSize {
			return ErrQueueFull
		}
	}

	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	// ZPOPMIN으로 꺼내므로 우선순위를 음수로 저장
	if err := q.client.ZAdd(ctx, q.pendingKey, redis.Z{Score: float64(-n.Priority), Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// Dequeue 우선순위가 가장 높은 알림을 꺼낸다
func (q *NotificationQueue) Dequeue(ctx context.Context) (*Notification, error) {
	res, err := dequeueScript.Run(ctx, q.client, []string{q.pendingKey, q.processingKey}, time.Now().Unix()).Result()
	if errors.Is(err, redis.Nil) || (err == nil && res == nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue notification: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected dequeue result %T", res)
	}
	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

// Complete 발송 완료
func (q *NotificationQueue) Complete(ctx context.Context, id string) error {
	if err := q.client.HDel(ctx, q.processingKey, id, id+":at").Err(); err != nil {
		return fmt.Errorf("failed to complete notification: %w", err)
	}
	return nil
}

// Retry 발송 실패. MaxRetries에 도달하면 dead 리스트로 이동.
func (q *NotificationQueue) Retry(ctx context.Context, n *Notification) error {
	n.Retries++
	if n.Retries >= n.MaxRetries {
		return q.bury(ctx, n, "max retries exceeded")
	}
	if err := q.Complete(ctx, n.ID); err != nil {
		return err
	}
	n.Priority -= 10
	return q.Enqueue(ctx, n)
}

func (q *NotificationQueue) bury(ctx context.Context, n *Notification, reason string) error {
	data, err := json.Marshal(map[string]interface{}{
		"notification": n,
		"reason":       reason,
		"buriedAt":     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.deadKey, data).Err(); err != nil {
		return fmt.Errorf("failed to bury notification: %w", err)
	}
	return q.Complete(ctx, n.ID)
}

// RecoverStale staleAfter 이상 processing에 머문 알림을 다시 큐로
func (q *NotificationQueue) RecoverStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	entries, err := q.client.HGetAll(ctx, q.processingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read processing notifications: %w", err)
	}

	cutoff := time.Now().Add(-staleAfter).Unix()
	recovered := 0
	for id, raw := range entries {
		if strings.HasSuffix(id, ":at") {
			continue
		}
		at, err := strconv.ParseInt(entries[id+":at"], 10, 64)
		if err != nil || at > cutoff {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if err := q.Retry(ctx, &n); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// Stats 큐 상태 조회
func (q *NotificationQueue) Stats(ctx context.Context) (*QueueStats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.ZCard(ctx, q.pendingKey)
	processing := pipe.HLen(ctx, q.processingKey)
	dead := pipe.LLen(ctx, q.deadKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return &QueueStats{
		Pending:    pending.Val(),
		Processing: processing.Val() / 2, // 항목마다 타임스탬프 키가 하나 더 있음
		Dead:       dead.Val(),
	}, nil
}
