package repository

import (
	"errors"
	"fmt"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"gorm.io/gorm"
)

// AutoMigrate 모든 테이블 스키마 생성/갱신
func AutoMigrate(db *database.DB) error {
	err := db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Event{},
		&models.EventCategory{},
		&models.TournamentConfig{},
		&models.Pairing{},
		&models.PairingSlot{},
		&models.Match{},
		&models.AuditLog{},
		&models.KnockoutGeneration{},
		&models.ParticipantNotification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// inCategory categoryID가 nil이면 카테고리 없는 레코드만
func inCategory(categoryID *string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if categoryID == nil {
			return q.Where("category_id IS NULL")
		}
		return q.Where("category_id = ?", *categoryID)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
