package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ParticipantNotification 페어링별 알림함 항목. 큐 항목 하나가 페어링 수만큼 펼쳐진다.
type ParticipantNotification struct {
	ID          string                       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	QueueItemID string                       `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_notification_delivery;not null"`
	EventID     string                       `json:"eventId" gorm:"type:varchar(36);index:idx_notification_inbox;not null"`
	CategoryID  *string                      `json:"categoryId,omitempty" gorm:"type:varchar(36)"`
	PairingID   string                       `json:"pairingId" gorm:"type:varchar(36);uniqueIndex:idx_notification_delivery;index:idx_notification_inbox;not null"`
	Kind        string                       `json:"kind" gorm:"type:varchar(30);not null"`
	MatchIDs    datatypes.JSONType[[]string] `json:"matchIds"`
	CreatedAt   time.Time                    `json:"createdAt"`
}

func (n *ParticipantNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
