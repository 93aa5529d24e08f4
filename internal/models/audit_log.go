package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditGenerateMatches AuditAction = "GENERATE_MATCHES"
	AuditEditMatchResult AuditAction = "EDIT_MATCH_RESULT"
	AuditUndoMatchResult AuditAction = "UNDO_MATCH_RESULT"
)

// SlotPropagation 승자가 다음 경기 슬롯에 기록된 내역
type SlotPropagation struct {
	NextMatchID string  `json:"nextMatchId"`
	NextSlot    Side    `json:"nextSlot"`
	Before      *string `json:"before"`
	After       *string `json:"after"`
}

// AuditPayload 감사 로그 before/after 스냅샷
type AuditPayload struct {
	Status          MatchStatus      `json:"status,omitempty"`
	Score           *MatchScore      `json:"score,omitempty"`
	WinnerPairingID *string          `json:"winnerPairingId,omitempty"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	Propagation     *SlotPropagation `json:"propagation,omitempty"`

	// GENERATE_MATCHES
	Format            string `json:"format,omitempty"`
	Phase             string `json:"phase,omitempty"`
	GenerationVersion string `json:"generationVersion,omitempty"`
	MatchCount        int    `json:"matchCount,omitempty"`
	Replaced          int    `json:"replaced,omitempty"`
}

// AuditLog 추가만 가능한 변경 기록
type AuditLog struct {
	ID             string                           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrganizationID string                           `json:"organizationId" gorm:"type:varchar(36);index"`
	TournamentID   string                           `json:"tournamentId" gorm:"type:varchar(36);index:idx_audit_scope;not null"`
	MatchID        *string                          `json:"matchId,omitempty" gorm:"type:varchar(36);index"`
	Action         AuditAction                      `json:"action" gorm:"type:varchar(30);index:idx_audit_scope;not null"`
	ActorUserID    string                           `json:"actorUserId" gorm:"type:varchar(36)"`
	PayloadBefore  datatypes.JSONType[AuditPayload] `json:"payloadBefore"`
	PayloadAfter   datatypes.JSONType[AuditPayload] `json:"payloadAfter"`
	SourceLogID    *string                          `json:"sourceLogId,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt      time.Time                        `json:"createdAt" gorm:"index:idx_audit_scope"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// KnockoutSeed 녹아웃 생성 시점의 시드 결정 내역
type KnockoutSeed struct {
	Seed       int    `json:"seed"`
	PairingID  string `json:"pairingId"`
	GroupLabel string `json:"groupLabel"`
	GroupRank  int    `json:"groupRank"`
	Points     int    `json:"points"`
	SetDiff    int    `json:"setDiff"`
	GameDiff   int    `json:"gameDiff"`
	SetsFor    int    `json:"setsFor"`
	Wildcard   bool   `json:"wildcard,omitempty"`
}

// KnockoutGeneration 녹아웃 생성 스냅샷 (분쟁 시 재현용)
type KnockoutGeneration struct {
	ID                string                             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID           string                             `json:"eventId" gorm:"type:varchar(36);index;not null"`
	CategoryID        *string                            `json:"categoryId,omitempty" gorm:"type:varchar(36)"`
	GenerationVersion string                             `json:"generationVersion" gorm:"type:varchar(80)"`
	SeedSnapshot      datatypes.JSONType[[]KnockoutSeed] `json:"koSeedSnapshot"`
	Override          bool                               `json:"koOverride"`
	GeneratedBy       string                             `json:"koGeneratedBy" gorm:"type:varchar(36)"`
	CreatedAt         time.Time                          `json:"koGeneratedAt"`
}

func (k *KnockoutGeneration) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
