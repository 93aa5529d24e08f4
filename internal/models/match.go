package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoundType string

const (
	RoundGroups   RoundType = "GROUPS"
	RoundKnockout RoundType = "KNOCKOUT"
)

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

type ResultType string

const (
	ResultNormal     ResultType = "NORMAL"
	ResultWalkover   ResultType = "WALKOVER"
	ResultRetirement ResultType = "RETIREMENT"
	ResultBye        ResultType = "BYE"
)

type ScoreMode string

const (
	ScoreModeSets       ScoreMode = "SETS"
	ScoreModeTimedGames ScoreMode = "TIMED_GAMES"
)

// Side 경기의 A/B 쪽
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// SetScore 한 세트의 게임 수
type SetScore struct {
	TeamA int `json:"teamA"`
	TeamB int `json:"teamB"`
}

// MatchScore 세트별 구조화된 결과
type MatchScore struct {
	Mode       ScoreMode  `json:"mode,omitempty"`
	Sets       []SetScore `json:"sets,omitempty"`
	GamesA     *int       `json:"gamesA,omitempty"`
	GamesB     *int       `json:"gamesB,omitempty"`
	ResultType ResultType `json:"resultType,omitempty"`
	WinnerSide Side       `json:"winnerSide,omitempty"`
}

// IsEmpty 기록된 결과가 전혀 없는지
func (s MatchScore) IsEmpty() bool {
	return len(s.Sets) == 0 && s.GamesA == nil && s.GamesB == nil && s.ResultType == "" && s.WinnerSide == ""
}

// Match 두 페어링 간의 경기 (또는 부전승 슬롯)
type Match struct {
	ID                string                         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID           string                         `json:"eventId" gorm:"type:varchar(36);index:idx_match_scope;not null"`
	CategoryID        *string                        `json:"categoryId,omitempty" gorm:"type:varchar(36);index:idx_match_scope"`
	RoundType         RoundType                      `json:"roundType" gorm:"type:varchar(10);index:idx_match_scope;not null"`
	RoundLabel        string                         `json:"roundLabel,omitempty" gorm:"type:varchar(20)"`
	RoundNumber       int                            `json:"roundNumber"`
	BracketPosition   int                            `json:"bracketPosition"`
	GroupLabel        *string                        `json:"groupLabel,omitempty" gorm:"type:varchar(10)"`
	CourtID           *string                        `json:"courtId,omitempty" gorm:"type:varchar(36)"`
	CourtName         string                         `json:"courtName,omitempty"`
	CourtNumber       int                            `json:"courtNumber,omitempty"`
	PlannedStartAt    *time.Time                     `json:"plannedStartAt,omitempty"`
	Status            MatchStatus                    `json:"status" gorm:"type:varchar(20);not null"`
	PairingAID        *string                        `json:"pairingAId,omitempty" gorm:"column:pairing_a_id;type:varchar(36)"`
	PairingBID        *string                        `json:"pairingBId,omitempty" gorm:"column:pairing_b_id;type:varchar(36)"`
	Score             datatypes.JSONType[MatchScore] `json:"score"`
	WinnerPairingID   *string                        `json:"winnerPairingId,omitempty" gorm:"type:varchar(36)"`
	NextMatchID       *string                        `json:"nextMatchId,omitempty" gorm:"type:varchar(36)"`
	NextSlot          *Side                          `json:"nextSlot,omitempty" gorm:"type:varchar(1)"`
	GenerationVersion string                         `json:"generationVersion" gorm:"type:varchar(80)"`
	CompletedAt       *time.Time                     `json:"completedAt,omitempty"`
	CreatedAt         time.Time                      `json:"createdAt"`
	UpdatedAt         time.Time                      `json:"updatedAt"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsPlayed 결과가 입력됐거나 진행 중인 경기 (부전승 자동 진출은 제외)
func (m *Match) IsPlayed() bool {
	if m.Status == MatchStatusInProgress {
		return true
	}
	if m.Status == MatchStatusCompleted {
		return m.Score.Data().ResultType != ResultBye
	}
	return false
}

// SlotValue A/B 슬롯의 현재 페어링
func (m *Match) SlotValue(side Side) *string {
	if side == SideB {
		return m.PairingBID
	}
	return m.PairingAID
}

// SetSlot A/B 슬롯에 페어링 지정
func (m *Match) SetSlot(side Side, pairingID *string) {
	if side == SideB {
		m.PairingBID = pairingID
		return
	}
	m.PairingAID = pairingID
}
