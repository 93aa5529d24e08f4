package service

import (
	"context"
	"errors"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"gorm.io/datatypes"
)

const inboxPageSize = 50

// InboxService 큐에서 꺼낸 참가자 알림을 페어링 알림함에 기록하고 조회한다
type InboxService struct {
	notifications *repository.NotificationRepository
	authz         *Authorizer
}

func NewInboxService(db *database.DB, authz *Authorizer) *InboxService {
	return &InboxService{
		notifications: repository.NewNotificationRepository(db),
		authz:         authz,
	}
}

// Deliver 알림 하나를 관련 페어링마다 한 건씩 저장
func (s *InboxService) Deliver(ctx context.Context, n *distributed.Notification) error {
	if n == nil || n.ID == "" || n.EventID == "" {
		return errors.New("notification is missing id or event")
	}

	entries := make([]models.ParticipantNotification, 0, len(n.PairingIDs))
	for _, pairingID := range n.PairingIDs {
		entries = append(entries, models.ParticipantNotification{
			QueueItemID: n.ID,
			EventID:     n.EventID,
			CategoryID:  n.CategoryID,
			PairingID:   pairingID,
			Kind:        n.Kind,
			MatchIDs:    datatypes.NewJSONType(n.MatchIDs),
		})
	}
	return s.notifications.CreateBatch(ctx, entries)
}

// List 페어링 알림함 조회 (토너먼트 편집 권한)
func (s *InboxService) List(ctx context.Context, actorUserID, eventID, pairingID string) ([]models.ParticipantNotification, error) {
	if eventID == "" || pairingID == "" {
		return nil, Reason(CodeInvalidInput)
	}
	if _, err := s.authz.RequireTournamentEditor(ctx, actorUserID, eventID); err != nil {
		return nil, err
	}
	return s.notifications.ListByPairing(ctx, eventID, pairingID, inboxPageSize)
}
