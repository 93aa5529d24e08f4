package padel

import "github.com/padel-arena/padel-arena-backend/internal/models"

// DeriveExpectedStatus 슬롯 상태에서 기대되는 등록 상태 계산.
// 슬롯이 없으면 채워지지도 결제되지도 않은 것으로 본다.
func DeriveExpectedStatus(p models.Pairing) models.RegistrationStatus {
	allFilled, allPaid := slotState(p.Slots)

	switch {
	case allFilled && allPaid:
		return models.RegistrationConfirmed
	case allFilled:
		return models.RegistrationPendingPayment
	case p.JoinMode == models.JoinModeLookingForPartner:
		return models.RegistrationMatchmaking
	default:
		return models.RegistrationPendingPartner
	}
}

func slotState(slots []models.PairingSlot) (allFilled, allPaid bool) {
	if len(slots) == 0 {
		return false, false
	}

	allFilled, allPaid = true, true
	for _, s := range slots {
		if s.SlotStatus != models.SlotFilled {
			allFilled = false
		}
		if s.PaymentStatus != models.PaymentPaid {
			allPaid = false
		}
	}
	return allFilled, allPaid
}
