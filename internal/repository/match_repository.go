package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// MatchFilter 경기 목록 조회 조건
type MatchFilter struct {
	EventID    string
	CategoryID *string
	RoundType  models.RoundType // 비어 있으면 전체
}

// CreateBatch 경기 여러 개를 한 번에 생성
func (r *MatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(matches, 100).Error; err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}
	return nil
}

// FindByID ID로 경기 찾기
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&match).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}
	return &match, nil
}

// FindByIDForUpdate 트랜잭션 안에서 행 잠금 후 조회 (SQLite는 잠금 절 무시)
func (r *MatchRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&match).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock match: %w", err)
	}
	return &match, nil
}

// List 이벤트/카테고리/라운드 기준 경기 목록
func (r *MatchRepository) List(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	q := r.db.WithContext(ctx).
		Scopes(inCategory(filter.CategoryID)).
		Where("event_id = ?", filter.EventID)
	if filter.RoundType != "" {
		q = q.Where("round_type = ?", filter.RoundType)
	}

	var matches []models.Match
	err := q.Order("round_type DESC, round_number ASC, bracket_position ASC, group_label ASC, id ASC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// DeleteByIDs 경기 삭제
func (r *MatchRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Match{}).Error; err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

// Save 경기 전체 필드 저장
func (r *MatchRepository) Save(ctx context.Context, match *models.Match) error {
	if err := r.db.WithContext(ctx).Save(match).Error; err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// LinkNext 승자가 진출할 다음 경기/슬롯 연결
func (r *MatchRepository) LinkNext(ctx context.Context, id, nextMatchID string, slot models.Side) error {
	err := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"next_match_id": nextMatchID, "next_slot": slot}).Error
	if err != nil {
		return fmt.Errorf("failed to link next match: %w", err)
	}
	return nil
}

// SetSlot 경기의 A/B 슬롯 페어링 변경
func (r *MatchRepository) SetSlot(ctx context.Context, id string, side models.Side, pairingID *string) error {
	column := "pairing_a_id"
	if side == models.SideB {
		column = "pairing_b_id"
	}
	err := r.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ?", id).
		Update(column, pairingID).Error
	if err != nil {
		return fmt.Errorf("failed to set match slot: %w", err)
	}
	return nil
}
