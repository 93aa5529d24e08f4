package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
)

// DirectoryRepository 조직/멤버/이벤트/카테고리/대회 설정 조회
type DirectoryRepository struct {
	db *database.DB
}

func NewDirectoryRepository(db *database.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindEvent 삭제되지 않은 이벤트 조회
func (r *DirectoryRepository) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

// ListEventIDs 모든 이벤트 ID
func (r *DirectoryRepository) ListEventIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Event{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return ids, nil
}

func (r *DirectoryRepository) FindOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return &org, nil
}

// FindMember 조직 내 사용자 멤버십
func (r *DirectoryRepository) FindMember(ctx context.Context, organizationID, userID string) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}
	return &member, nil
}

// FindEventCategory 이벤트-카테고리 연결
func (r *DirectoryRepository) FindEventCategory(ctx context.Context, eventID, categoryID string) (*models.EventCategory, error) {
	var ec models.EventCategory
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND category_id = ?", eventID, categoryID).
		First(&ec).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event category: %w", err)
	}
	return &ec, nil
}

// FindTournamentConfig 이벤트의 대회 설정. 없으면 nil.
func (r *DirectoryRepository) FindTournamentConfig(ctx context.Context, eventID string) (*models.TournamentConfig, error) {
	var cfg models.TournamentConfig
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&cfg).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament config: %w", err)
	}
	return &cfg, nil
}

// SaveTournamentConfig 대회 설정 저장 (생성 또는 갱신)
func (r *DirectoryRepository) SaveTournamentConfig(ctx context.Context, cfg *models.TournamentConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return fmt.Errorf("failed to save tournament config: %w", err)
	}
	return nil
}
