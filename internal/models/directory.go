package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleOwner   MemberRole = "OWNER"
	RoleCoOwner MemberRole = "CO_OWNER"
	RoleAdmin   MemberRole = "ADMIN"
	RoleStaff   MemberRole = "STAFF"
	RoleViewer  MemberRole = "VIEWER"
)

type ModuleAccess string

const (
	AccessNone ModuleAccess = "NONE"
	AccessView ModuleAccess = "VIEW"
	AccessEdit ModuleAccess = "EDIT"
)

// Organization 이벤트를 소유하는 조직
type Organization struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string     `json:"name" gorm:"not null"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// OrganizationMember 조직 멤버십과 토너먼트 모듈 권한
type OrganizationMember struct {
	ID                string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrganizationID    string       `json:"organizationId" gorm:"type:varchar(36);uniqueIndex:idx_org_member;not null"`
	UserID            string       `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_org_member;not null"`
	Role              MemberRole   `json:"role" gorm:"type:varchar(20);not null"`
	TournamentsAccess ModuleAccess `json:"tournamentsAccess" gorm:"type:varchar(10);not null"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Event 토너먼트 이벤트
type Event struct {
	ID             string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrganizationID string         `json:"organizationId" gorm:"type:varchar(36);index;not null"`
	Title          string         `json:"title"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// EventCategory 이벤트에 연결된 카테고리 (M3, F4 등)
type EventCategory struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID    string    `json:"eventId" gorm:"type:varchar(36);uniqueIndex:idx_event_category;not null"`
	CategoryID string    `json:"categoryId" gorm:"type:varchar(36);uniqueIndex:idx_event_category;not null"`
	Label      string    `json:"label"`
	Enabled    bool      `json:"enabled" gorm:"not null"`
	Archived   bool      `json:"archived" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TournamentConfig 이벤트별 대회 설정 (이벤트당 1개)
type TournamentConfig struct {
	ID                string                             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID           string                             `json:"eventId" gorm:"type:varchar(36);uniqueIndex;not null"`
	Format            string                             `json:"format" gorm:"type:varchar(40)"`
	IsInterclub       bool                               `json:"isInterclub"`
	NumberOfCourts    int                                `json:"numberOfCourts"`
	Courts            datatypes.JSONType[[]Court]        `json:"courts"`
	GroupsConfig      datatypes.JSONType[GroupsConfig]   `json:"groupsConfig"`
	PointsTable       datatypes.JSONType[PointsTable]    `json:"pointsTable"`
	TieBreakRules     datatypes.JSONType[[]TieBreakRule] `json:"tieBreakRules"`
	ScoreRules        datatypes.JSONType[*ScoreRules]    `json:"scoreRules"`
	GenerationVersion string                             `json:"generationVersion" gorm:"type:varchar(40)"`
	ScheduleStartAt   *time.Time                         `json:"scheduleStartAt,omitempty"`
	MatchMinutes      int                                `json:"matchMinutes"`
	CreatedAt         time.Time                          `json:"createdAt"`
	UpdatedAt         time.Time                          `json:"updatedAt"`
}

// Court 경기장 코트
type Court struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// GroupsConfig 조별 리그 설정. 0은 미설정.
type GroupsConfig struct {
	GroupCount      int    `json:"groupCount,omitempty"`
	GroupSize       int    `json:"groupSize,omitempty"`
	QualifyPerGroup int    `json:"qualifyPerGroup,omitempty"`
	ExtraQualifiers int    `json:"extraQualifiers,omitempty"`
	Seeding         string `json:"seeding,omitempty"`
}

// PointsTable 경기 결과별 승점. nil이면 기본값.
type PointsTable struct {
	Win  *int `json:"WIN,omitempty"`
	Draw *int `json:"DRAW,omitempty"`
	Loss *int `json:"LOSS,omitempty"`
	Bye  *int `json:"BYE_NEUTRAL,omitempty"`
}

type TieBreakRule string

const (
	TieBreakPoints         TieBreakRule = "POINTS"
	TieBreakHeadToHead     TieBreakRule = "HEAD_TO_HEAD"
	TieBreakSetDifference  TieBreakRule = "SET_DIFFERENCE"
	TieBreakGameDifference TieBreakRule = "GAME_DIFFERENCE"
	TieBreakGamesFor       TieBreakRule = "GAMES_FOR"
	TieBreakSetsFor        TieBreakRule = "SETS_FOR"
	TieBreakWins           TieBreakRule = "WINS"
	TieBreakCoinToss       TieBreakRule = "COIN_TOSS"
)

// ScoreRules 세트 스코어 검증 규칙
type ScoreRules struct {
	SetsToWin                int  `json:"setsToWin"`
	MaxSets                  int  `json:"maxSets"`
	GamesToWinSet            int  `json:"gamesToWinSet"`
	TieBreakAt               *int `json:"tieBreakAt"`
	TieBreakTo               *int `json:"tieBreakTo"`
	AllowSuperTieBreak       bool `json:"allowSuperTieBreak"`
	SuperTieBreakTo          int  `json:"superTieBreakTo"`
	SuperTieBreakWinBy       int  `json:"superTieBreakWinBy"`
	SuperTieBreakOnlyDecider bool `json:"superTieBreakOnlyDecider"`
	AllowExtendedGames       bool `json:"allowExtendedGames"`
	AllowTimedDraw           bool `json:"allowTimedDraw"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (m *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (c *EventCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *TournamentConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
