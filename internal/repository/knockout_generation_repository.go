package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
)

type KnockoutGenerationRepository struct {
	db *database.DB
}

func NewKnockoutGenerationRepository(db *database.DB) *KnockoutGenerationRepository {
	return &KnockoutGenerationRepository{db: db}
}

// Create 녹아웃 시드 스냅샷 저장
func (r *KnockoutGenerationRepository) Create(ctx context.Context, gen *models.KnockoutGeneration) error {
	if err := r.db.WithContext(ctx).Create(gen).Error; err != nil {
		return fmt.Errorf("failed to create knockout generation: %w", err)
	}
	return nil
}

// Latest 카테고리의 가장 최근 녹아웃 생성 기록
func (r *KnockoutGenerationRepository) Latest(ctx context.Context, eventID string, categoryID *string) (*models.KnockoutGeneration, error) {
	var gen models.KnockoutGeneration
	err := r.db.WithContext(ctx).
		Scopes(inCategory(categoryID)).
		Where("event_id = ?", eventID).
		Order("created_at DESC, id DESC").
		First(&gen).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find knockout generation: %w", err)
	}
	return &gen, nil
}
