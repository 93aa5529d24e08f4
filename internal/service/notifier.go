package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/padel-arena/padel-arena-backend/internal/websocket"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"go.uber.org/zap"
)

type NotificationKind string

const (
	NotifyMatchesGenerated NotificationKind = "matches_generated"
	NotifyMatchResult      NotificationKind = "match_result"
	NotifyMatchUndo        NotificationKind = "match_undo"
)

// MatchEvent 대진 생성/결과 변경 알림
type MatchEvent struct {
	Kind       NotificationKind `json:"kind"`
	EventID    string           `json:"eventId"`
	CategoryID *string          `json:"categoryId,omitempty"`
	Phase      string           `json:"phase,omitempty"`
	MatchIDs   []string         `json:"matchIds,omitempty"`
	PairingIDs []string         `json:"pairingIds,omitempty"`
	Payload    interface{}      `json:"payload,omitempty"`
}

// Notifier 알림 발송. 실패해도 호출한 쪽의 변경은 유지된다.
type Notifier interface {
	Notify(ctx context.Context, ev MatchEvent) error
}

// QueueNotifier 참가자 알림을 Redis 큐에 넣는다 (발송은 별도 워커)
type QueueNotifier struct {
	queue      *distributed.NotificationQueue
	maxRetries int
}

func NewQueueNotifier(queue *distributed.NotificationQueue, maxRetries int) *QueueNotifier {
	return &QueueNotifier{queue: queue, maxRetries: maxRetries}
}

func (n *QueueNotifier) Notify(ctx context.Context, ev MatchEvent) error {
	priority := 10
	if ev.Kind == NotifyMatchesGenerated {
		priority = 50
	}
	return n.queue.Enqueue(ctx, &distributed.Notification{
		ID:         uuid.NewString(),
		Kind:       string(ev.Kind),
		EventID:    ev.EventID,
		CategoryID: ev.CategoryID,
		MatchIDs:   ev.MatchIDs,
		PairingIDs: ev.PairingIDs,
		Priority:   priority,
		MaxRetries: n.maxRetries,
	})
}

// HubNotifier 라이브 피드 갱신. relay가 있으면 모든 인스턴스로 중계.
type HubNotifier struct {
	hub   *websocket.Hub
	relay *distributed.LiveRelay
}

func NewHubNotifier(hub *websocket.Hub, relay *distributed.LiveRelay) *HubNotifier {
	return &HubNotifier{hub: hub, relay: relay}
}

func (n *HubNotifier) Notify(ctx context.Context, ev MatchEvent) error {
	if n.relay == nil {
		n.hub.Publish(ev.EventID, string(ev.Kind), ev)
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	update := distributed.LiveUpdate{
		Type:       string(ev.Kind),
		EventID:    ev.EventID,
		CategoryID: ev.CategoryID,
		Payload:    payload,
	}
	if len(ev.MatchIDs) == 1 {
		update.MatchID = ev.MatchIDs[0]
	}
	return n.relay.Publish(ctx, update)
}

// MultiNotifier 여러 Notifier에 모두 전달하고 에러를 모은다
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev MatchEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, MatchEvent) error { return nil }

// dispatchAsync 커밋 이후 알림 발송. 실패는 로그만 남긴다.
func dispatchAsync(n Notifier, logger *zap.Logger, ev MatchEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.Notify(ctx, ev); err != nil {
			logger.Warn("Notification dispatch failed",
				zap.String("kind", string(ev.Kind)),
				zap.String("eventId", ev.EventID),
				zap.Error(err))
		}
	}()
}
