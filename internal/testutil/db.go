// Package testutil 테스트용 인메모리 DB와 기본 데이터 생성 헬퍼
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"

	_ "modernc.org/sqlite"
)

// NewDB 마이그레이션이 끝난 인메모리 SQLite DB
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(sqlite.New(sqlite.Config{
		DSN:        "file::memory:?_pragma=foreign_keys(1)",
		DriverName: "sqlite",
	}), false)
	require.NoError(t, err)

	// 커넥션마다 별도 메모리 DB가 생기므로 하나로 고정
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// Fixture 조직 하나, 이벤트 하나, 카테고리 하나
type Fixture struct {
	DB         *database.DB
	Org        models.Organization
	Event      models.Event
	CategoryID string
}

// SeedEvent 이메일 인증된 조직과 활성 카테고리를 가진 이벤트 생성
func SeedEvent(t *testing.T, db *database.DB) *Fixture {
	t.Helper()

	verified := time.Now().UTC()
	f := &Fixture{
		DB:         db,
		Org:        models.Organization{Name: "Clube Padel", EmailVerifiedAt: &verified},
		CategoryID: uuid.NewString(),
	}
	require.NoError(t, db.Create(&f.Org).Error)

	f.Event = models.Event{OrganizationID: f.Org.ID, Title: "Open de Primavera"}
	require.NoError(t, db.Create(&f.Event).Error)

	require.NoError(t, db.Create(&models.EventCategory{
		EventID:    f.Event.ID,
		CategoryID: f.CategoryID,
		Label:      "M3",
		Enabled:    true,
	}).Error)

	return f
}

// AddMember 조직 멤버 추가
func (f *Fixture) AddMember(t *testing.T, userID string, role models.MemberRole, access models.ModuleAccess) {
	t.Helper()
	require.NoError(t, f.DB.Create(&models.OrganizationMember{
		OrganizationID:    f.Org.ID,
		UserID:            userID,
		Role:              role,
		TournamentsAccess: access,
	}).Error)
}

// SetConfig 이벤트의 대회 설정 생성/갱신
func (f *Fixture) SetConfig(t *testing.T, format string, mutate func(*models.TournamentConfig)) *models.TournamentConfig {
	t.Helper()

	var cfg models.TournamentConfig
	err := f.DB.Where("event_id = ?", f.Event.ID).First(&cfg).Error
	if err != nil {
		cfg = models.TournamentConfig{
			EventID:        f.Event.ID,
			NumberOfCourts: 2,
			GroupsConfig:   datatypes.NewJSONType(models.GroupsConfig{}),
			PointsTable:    datatypes.NewJSONType(models.PointsTable{}),
		}
	}
	cfg.Format = format
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, f.DB.Save(&cfg).Error)
	return &cfg
}

// AddConfirmedPairings 결제까지 끝난 페어링 n개 생성 (등록 순서 보장)
func (f *Fixture) AddConfirmedPairings(t *testing.T, n int) []models.Pairing {
	t.Helper()

	base := time.Now().UTC().Add(-time.Hour)
	pairings := make([]models.Pairing, 0, n)
	for i := 0; i < n; i++ {
		p := models.Pairing{
			EventID:            f.Event.ID,
			CategoryID:         &f.CategoryID,
			PairingStatus:      models.PairingComplete,
			JoinMode:           models.JoinModeInvitePartner,
			RegistrationStatus: models.RegistrationConfirmed,
			CreatedAt:          base.Add(time.Duration(i) * time.Second),
			Slots: []models.PairingSlot{
				{Position: 1, SlotStatus: models.SlotFilled, PaymentStatus: models.PaymentPaid},
				{Position: 2, SlotStatus: models.SlotFilled, PaymentStatus: models.PaymentPaid},
			},
		}
		require.NoError(t, f.DB.Create(&p).Error, fmt.Sprintf("pairing %d", i))
		pairings = append(pairings, p)
	}
	return pairings
}
