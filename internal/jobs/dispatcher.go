package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"go.uber.org/zap"
)

// 한 번 실행에 꺼내는 최대 알림 수
const dispatchBatchSize = 100

// NotificationQueue 참가자 알림 큐 (Redis 구현은 distributed.NotificationQueue)
type NotificationQueue interface {
	Dequeue(ctx context.Context) (*distributed.Notification, error)
	Complete(ctx context.Context, id string) error
	Retry(ctx context.Context, n *distributed.Notification) error
	RecoverStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

// Deliverer 꺼낸 알림을 실제로 전달
type Deliverer interface {
	Deliver(ctx context.Context, n *distributed.Notification) error
}

// DispatchStats 한 번 실행 결과
type DispatchStats struct {
	Delivered int
	Retried   int
}

// Dispatcher 큐를 비울 때까지 (최대 dispatchBatchSize개) 알림을 전달
type Dispatcher struct {
	queue     NotificationQueue
	deliverer Deliverer
	logger    *zap.Logger
}

func NewDispatcher(queue NotificationQueue, deliverer Deliverer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, deliverer: deliverer, logger: logger}
}

// Drain 큐가 빌 때까지 전달. 전달 실패는 Retry로 돌려보내고 계속 진행한다.
func (d *Dispatcher) Drain(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats
	for i := 0; i < dispatchBatchSize; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, err := d.queue.Dequeue(ctx)
		if errors.Is(err, distributed.ErrQueueEmpty) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		if err := d.deliverer.Deliver(ctx, n); err != nil {
			d.logger.Warn("Notification delivery failed",
				zap.String("id", n.ID),
				zap.String("kind", n.Kind),
				zap.Int("retries", n.Retries),
				zap.Error(err))
			if err := d.queue.Retry(ctx, n); err != nil {
				return stats, err
			}
			stats.Retried++
			continue
		}

		if err := d.queue.Complete(ctx, n.ID); err != nil {
			return stats, err
		}
		stats.Delivered++
	}
	return stats, nil
}
