package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationPendingPartner RegistrationStatus = "PENDING_PARTNER"
	RegistrationMatchmaking    RegistrationStatus = "MATCHMAKING"
	RegistrationPendingPayment RegistrationStatus = "PENDING_PAYMENT"
	RegistrationConfirmed      RegistrationStatus = "CONFIRMED"
	RegistrationCancelled      RegistrationStatus = "CANCELLED"
	RegistrationExpired        RegistrationStatus = "EXPIRED"
	RegistrationRefunded       RegistrationStatus = "REFUNDED"
)

type PairingStatus string

const (
	PairingIncomplete PairingStatus = "INCOMPLETE"
	PairingComplete   PairingStatus = "COMPLETE"
	PairingCancelled  PairingStatus = "CANCELLED"
)

type JoinMode string

const (
	JoinModeInvitePartner     JoinMode = "INVITE_PARTNER"
	JoinModeLookingForPartner JoinMode = "LOOKING_FOR_PARTNER"
)

type SlotStatus string

const (
	SlotEmpty  SlotStatus = "EMPTY"
	SlotFilled SlotStatus = "FILLED"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// Pairing 카테고리에 등록된 한 팀 (2인)
type Pairing struct {
	ID                 string             `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID            string             `json:"eventId" gorm:"type:varchar(36);index;not null"`
	CategoryID         *string            `json:"categoryId,omitempty" gorm:"type:varchar(36);index"`
	PairingStatus      PairingStatus      `json:"pairingStatus" gorm:"type:varchar(20);not null"`
	JoinMode           JoinMode           `json:"pairingJoinMode" gorm:"type:varchar(30);not null"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus" gorm:"type:varchar(30);index;not null"`
	SeedRank           *int               `json:"seedRank,omitempty"`
	Slots              []PairingSlot      `json:"slots" gorm:"foreignKey:PairingID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// PairingSlot 페어링 안의 선수 자리 하나
type PairingSlot struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PairingID     string        `json:"pairingId" gorm:"type:varchar(36);index;not null"`
	Position      int           `json:"position"`
	SlotStatus    SlotStatus    `json:"slotStatus" gorm:"type:varchar(10);not null"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(10);not null"`
	ProfileID     *string       `json:"profileId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (p *Pairing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (s *PairingSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal 취소/만료/환불 상태 여부
func (s RegistrationStatus) IsTerminal() bool {
	switch s {
	case RegistrationCancelled, RegistrationExpired, RegistrationRefunded:
		return true
	}
	return false
}

// IsPending 파트너 대기 또는 결제 대기
func (s RegistrationStatus) IsPending() bool {
	return s == RegistrationPendingPartner || s == RegistrationPendingPayment
}
