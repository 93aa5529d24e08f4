package padel

import "github.com/padel-arena/padel-arena-backend/internal/models"

type IntegrityReason string

const (
	ReasonConfirmedPairingIncomplete       IntegrityReason = "CONFIRMED_PAIRING_INCOMPLETE"
	ReasonConfirmedSlotsUnpaid             IntegrityReason = "CONFIRMED_SLOTS_UNPAID"
	ReasonMatchmakingJoinModeMismatch      IntegrityReason = "MATCHMAKING_JOINMODE_MISMATCH"
	ReasonPendingJoinModeMismatch          IntegrityReason = "PENDING_JOINMODE_MISMATCH"
	ReasonPairingCancelledRegistrationLive IntegrityReason = "PAIRING_CANCELLED_REGISTRATION_ACTIVE"
	ReasonTerminalRegistrationPairingLive  IntegrityReason = "TERMINAL_REGISTRATION_PAIRING_ACTIVE"
	ReasonRegistrationStatusMismatch       IntegrityReason = "REGISTRATION_STATUS_MISMATCH"
)

// IntegrityIssue 페어링 상태 불일치 한 건
type IntegrityIssue struct {
	PairingID          string                     `json:"pairingId"`
	EventID            string                     `json:"eventId"`
	Reason             IntegrityReason            `json:"reason"`
	PairingStatus      models.PairingStatus       `json:"pairingStatus"`
	JoinMode           models.JoinMode            `json:"pairingJoinMode"`
	RegistrationStatus models.RegistrationStatus  `json:"registrationStatus"`
	ExpectedStatus     *models.RegistrationStatus `json:"expectedStatus,omitempty"`
}

// IntegritySummary 운영 대시보드용 집계
type IntegritySummary struct {
	Total            int                     `json:"total"`
	AffectedPairings int                     `json:"affectedPairings"`
	ByReason         map[IntegrityReason]int `json:"byReason"`
	Issues           []IntegrityIssue        `json:"issues"`
}

// EvaluateIntegrity 저장된 상태가 규칙에서 벗어난 항목을 모두 보고. 쓰기를 막지 않는 탐지 전용.
func EvaluateIntegrity(p models.Pairing) []IntegrityIssue {
	var issues []IntegrityIssue
	report := func(reason IntegrityReason, expected *models.RegistrationStatus) {
		issues = append(issues, IntegrityIssue{
			PairingID:          p.ID,
			EventID:            p.EventID,
			Reason:             reason,
			PairingStatus:      p.PairingStatus,
			JoinMode:           p.JoinMode,
			RegistrationStatus: p.RegistrationStatus,
			ExpectedStatus:     expected,
		})
	}

	status := p.RegistrationStatus
	allFilled, allPaid := slotState(p.Slots)

	if status == models.RegistrationConfirmed {
		if p.PairingStatus != models.PairingComplete {
			report(ReasonConfirmedPairingIncomplete, nil)
		}
		if !allFilled || !allPaid {
			report(ReasonConfirmedSlotsUnpaid, nil)
		}
	}
	if status == models.RegistrationMatchmaking && p.JoinMode != models.JoinModeLookingForPartner {
		report(ReasonMatchmakingJoinModeMismatch, nil)
	}
	if status.IsPending() && p.JoinMode == models.JoinModeLookingForPartner {
		report(ReasonPendingJoinModeMismatch, nil)
	}
	if p.PairingStatus == models.PairingCancelled && !status.IsTerminal() {
		report(ReasonPairingCancelledRegistrationLive, nil)
	}
	if status.IsTerminal() && p.PairingStatus != models.PairingCancelled {
		report(ReasonTerminalRegistrationPairingLive, nil)
	}
	if !status.IsTerminal() {
		if expected := DeriveExpectedStatus(p); expected != status {
			report(ReasonRegistrationStatusMismatch, &expected)
		}
	}
	return issues
}

// SummarizeIntegrity 여러 페어링의 이슈를 합계와 사유별 개수로 집계
func SummarizeIntegrity(pairings []models.Pairing) IntegritySummary {
	summary := IntegritySummary{
		ByReason: make(map[IntegrityReason]int),
		Issues:   []IntegrityIssue{},
	}
	for _, p := range pairings {
		issues := EvaluateIntegrity(p)
		if len(issues) == 0 {
			continue
		}
		summary.AffectedPairings++
		for _, issue := range issues {
			summary.ByReason[issue.Reason]++
		}
		summary.Issues = append(summary.Issues, issues...)
	}
	summary.Total = len(summary.Issues)
	return summary
}
