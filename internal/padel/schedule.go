package padel

import (
	"fmt"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/models"
)

// ScheduleOptions 코트 배정과 예정 시각 계산 옵션
type ScheduleOptions struct {
	Courts       []models.Court
	StartAt      *time.Time
	MatchMinutes int
}

// ResolveCourts 설정된 코트 목록. 없으면 numberOfCourts 만큼 "Court N" 생성.
func ResolveCourts(cfg *models.TournamentConfig) []models.Court {
	if cfg == nil {
		return nil
	}
	if courts := cfg.Courts.Data(); len(courts) > 0 {
		return courts
	}

	courts := make([]models.Court, 0, cfg.NumberOfCourts)
	for i := 1; i <= cfg.NumberOfCourts; i++ {
		courts = append(courts, models.Court{Name: fmt.Sprintf("Court %d", i), Number: i})
	}
	return courts
}

// AssignCourts 경기 순서대로 코트를 돌아가며 배정하고,
// 시작 시각이 있으면 코트가 한 바퀴 돌 때마다 matchMinutes 씩 뒤로 민다.
// 부전승 경기는 건너뛴다.
func AssignCourts(matches []*models.Match, opts ScheduleOptions) {
	if len(opts.Courts) == 0 {
		return
	}

	slot := 0
	for _, m := range matches {
		if m.Status == models.MatchStatusCompleted {
			continue
		}
		court := opts.Courts[slot%len(opts.Courts)]
		if court.ID != "" {
			id := court.ID
			m.CourtID = &id
		}
		m.CourtName = court.Name
		m.CourtNumber = court.Number

		if opts.StartAt != nil && opts.MatchMinutes > 0 {
			wave := slot / len(opts.Courts)
			at := opts.StartAt.Add(time.Duration(wave*opts.MatchMinutes) * time.Minute)
			m.PlannedStartAt = &at
		}
		slot++
	}
}
