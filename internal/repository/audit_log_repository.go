package repository

import (
	"context"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
)

type AuditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create 감사 로그 추가 (수정/삭제 없음)
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Recent 토너먼트의 최근 감사 로그 limit개 (최신순)
func (r *AuditLogRepository) Recent(ctx context.Context, tournamentID string, actions []models.AuditAction, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("tournament_id = ? AND action IN ?", tournamentID, actions).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

// FindUndoOf sourceLogID를 되돌린 UNDO 기록
func (r *AuditLogRepository) FindUndoOf(ctx context.Context, sourceLogID string) (*models.AuditLog, error) {
	var entry models.AuditLog
	err := r.db.WithContext(ctx).
		Where("source_log_id = ? AND action = ?", sourceLogID, models.AuditUndoMatchResult).
		First(&entry).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find undo log: %w", err)
	}
	return &entry, nil
}

// ListByMatch 경기의 감사 기록 (오래된 순)
func (r *AuditLogRepository) ListByMatch(ctx context.Context, matchID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list match audit logs: %w", err)
	}
	return entries, nil
}
