package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch 알림함 항목 저장. 같은 큐 항목이 다시 배달돼도 중복 저장하지 않는다.
func (r *NotificationRepository) CreateBatch(ctx context.Context, entries []models.ParticipantNotification) error {
	if len(entries) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	return nil
}

// ListByPairing 페어링 알림함 (최신순)
func (r *NotificationRepository) ListByPairing(ctx context.Context, eventID, pairingID string, limit int) ([]models.ParticipantNotification, error) {
	var entries []models.ParticipantNotification
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND pairing_id = ?", eventID, pairingID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return entries, nil
}
