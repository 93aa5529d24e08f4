package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"gorm.io/gorm"
)

type PairingRepository struct {
	db *database.DB
}

func NewPairingRepository(db *database.DB) *PairingRepository {
	return &PairingRepository{db: db}
}

// Create 페어링과 슬롯 생성
func (r *PairingRepository) Create(ctx context.Context, pairing *models.Pairing) error {
	if err := r.db.WithContext(ctx).Create(pairing).Error; err != nil {
		return fmt.Errorf("failed to create pairing: %w", err)
	}
	return nil
}

// FindByID ID로 페어링 찾기 (슬롯 포함)
func (r *PairingRepository) FindByID(ctx context.Context, id string) (*models.Pairing, error) {
	var pairing models.Pairing
	err := r.db.WithContext(ctx).Preload("Slots").Where("id = ?", id).First(&pairing).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pairing: %w", err)
	}
	return &pairing, nil
}

// ListConfirmed 카테고리의 확정(CONFIRMED) 페어링 목록
func (r *PairingRepository) ListConfirmed(ctx context.Context, eventID string, categoryID *string) ([]models.Pairing, error) {
	var pairings []models.Pairing
	err := r.db.WithContext(ctx).
		Scopes(inCategory(categoryID)).
		Where("event_id = ? AND registration_status = ?", eventID, models.RegistrationConfirmed).
		Order("created_at ASC, id ASC").
		Find(&pairings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed pairings: %w", err)
	}
	return pairings, nil
}

// ListByEvent 이벤트의 모든 페어링 (슬롯 포함)
func (r *PairingRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Pairing, error) {
	var pairings []models.Pairing
	err := r.db.WithContext(ctx).
		Preload("Slots").
		Where("event_id = ?", eventID).
		Order("created_at ASC, id ASC").
		Find(&pairings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pairings: %w", err)
	}
	return pairings, nil
}

// EachBatch 전체 페어링을 batchSize 단위로 순회
func (r *PairingRepository) EachBatch(ctx context.Context, batchSize int, fn func([]models.Pairing) error) error {
	var batch []models.Pairing
	result := r.db.WithContext(ctx).
		Preload("Slots").
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	if result.Error != nil {
		return fmt.Errorf("failed to scan pairings: %w", result.Error)
	}
	return nil
}
