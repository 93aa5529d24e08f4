package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LiveUpdate 라이브 피드로 전달되는 변경 알림
type LiveUpdate struct {
	Type       string          `json:"type"` // matches_generated, match_result, match_undo
	EventID    string          `json:"eventId"`
	CategoryID *string         `json:"categoryId,omitempty"`
	MatchID    string          `json:"matchId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Origin     string          `json:"origin"`
	Timestamp  time.Time       `json:"timestamp"`
}

// LiveRelay Redis Pub/Sub으로 인스턴스 간 라이브 피드를 중계
type LiveRelay struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *zap.Logger
}

func NewLiveRelay(client *redis.Client, channel string, logger *zap.Logger) *LiveRelay {
	return &LiveRelay{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Publish 업데이트 발행
func (r *LiveRelay) Publish(ctx context.Context, update LiveUpdate) error {
	update.Origin = r.instanceID
	update.Timestamp = time.Now().UTC()

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal live update: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish live update: %w", err)
	}
	return nil
}

// Run ctx가 끝날 때까지 구독하며 handler 호출
func (r *LiveRelay) Run(ctx context.Context, handler func(LiveUpdate)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	r.logger.Info("Live relay subscribed",
		zap.String("instance_id", r.instanceID),
		zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update LiveUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				r.logger.Warn("Dropping malformed live update", zap.Error(err))
				continue
			}
			handler(update)
		}
	}
}
