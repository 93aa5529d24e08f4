package padel

import (
	"errors"

	"github.com/padel-arena/padel-arena-backend/internal/models"
)

var ErrInvalidScore = errors.New("invalid score")

const walkoverSetGames = 6

// MatchStats 스코어에서 계산한 세트/게임 집계
type MatchStats struct {
	ASets      int
	BSets      int
	AGames     int
	BGames     int
	Winner     models.Side // 무승부면 빈 값
	IsDraw     bool
	ResultType models.ResultType
}

// DefaultScoreRules 3세트 2선승, 6게임, 6-6 타이브레이크, 결정 세트 슈퍼 타이브레이크 10점
func DefaultScoreRules() models.ScoreRules {
	tieBreakAt, tieBreakTo := 6, 7
	return models.ScoreRules{
		SetsToWin:                2,
		MaxSets:                  3,
		GamesToWinSet:            6,
		TieBreakAt:               &tieBreakAt,
		TieBreakTo:               &tieBreakTo,
		AllowSuperTieBreak:       true,
		SuperTieBreakTo:          10,
		SuperTieBreakWinBy:       2,
		SuperTieBreakOnlyDecider: true,
		AllowTimedDraw:           true,
	}
}

// NormalizeScoreRules 범위를 벗어난 값은 잘라내고 0은 기본값으로 채운다
func NormalizeScoreRules(r *models.ScoreRules) models.ScoreRules {
	def := DefaultScoreRules()
	if r == nil {
		return def
	}

	out := *r
	out.SetsToWin = clamp(out.SetsToWin, def.SetsToWin, 1, 5)
	out.MaxSets = clamp(out.MaxSets, max(def.MaxSets, out.SetsToWin*2-1), out.SetsToWin, 9)
	out.GamesToWinSet = clamp(out.GamesToWinSet, def.GamesToWinSet, 1, 9)
	out.SuperTieBreakTo = clamp(out.SuperTieBreakTo, def.SuperTieBreakTo, 5, 20)
	out.SuperTieBreakWinBy = clamp(out.SuperTieBreakWinBy, def.SuperTieBreakWinBy, 1, 5)

	if out.TieBreakAt != nil {
		at := clamp(*out.TieBreakAt, out.GamesToWinSet, 1, 12)
		to := at + 1
		if out.TieBreakTo != nil {
			to = clamp(*out.TieBreakTo, at+1, at+1, 15)
		}
		out.TieBreakAt, out.TieBreakTo = &at, &to
	} else {
		out.TieBreakTo = nil
	}
	return out
}

func clamp(v, fallback, lo, hi int) int {
	if v == 0 {
		v = fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WalkoverSets 기권승 스코어 (6-0 x setsToWin)
func WalkoverSets(winner models.Side, setsToWin int) []models.SetScore {
	if setsToWin < 1 {
		setsToWin = 2
	}
	sets := make([]models.SetScore, setsToWin)
	for i := range sets {
		if winner == models.SideA {
			sets[i] = models.SetScore{TeamA: walkoverSetGames}
		} else {
			sets[i] = models.SetScore{TeamB: walkoverSetGames}
		}
	}
	return sets
}

// ResolveMatchStats 스코어에서 승자와 집계를 계산.
// rules가 nil이면 세트별 승패만 확인하고, 있으면 세트 스코어를 규칙대로 엄격히 검증한다.
func ResolveMatchStats(score models.MatchScore, rules *models.ScoreRules) (*MatchStats, error) {
	switch score.ResultType {
	case models.ResultBye:
		if score.WinnerSide != models.SideA && score.WinnerSide != models.SideB {
			return nil, ErrInvalidScore
		}
		return &MatchStats{Winner: score.WinnerSide, ResultType: models.ResultBye}, nil

	case models.ResultWalkover:
		if score.WinnerSide != models.SideA && score.WinnerSide != models.SideB {
			return nil, ErrInvalidScore
		}
		setsToWin := 2
		if rules != nil {
			setsToWin = rules.SetsToWin
		}
		stats := tallySets(WalkoverSets(score.WinnerSide, setsToWin))
		stats.Winner = score.WinnerSide
		stats.ResultType = models.ResultWalkover
		return stats, nil

	case models.ResultRetirement:
		// 기권 시점까지의 세트만 집계하고 승자는 명시된 쪽
		if score.WinnerSide != models.SideA && score.WinnerSide != models.SideB {
			return nil, ErrInvalidScore
		}
		for _, s := range score.Sets {
			if s.TeamA < 0 || s.TeamB < 0 {
				return nil, ErrInvalidScore
			}
		}
		stats := tallySets(score.Sets)
		stats.Winner = score.WinnerSide
		stats.ResultType = models.ResultRetirement
		return stats, nil

	case "", models.ResultNormal:
	default:
		return nil, ErrInvalidScore
	}

	if score.Mode == models.ScoreModeTimedGames {
		return resolveTimedGames(score, rules)
	}
	return resolveSets(score.Sets, rules)
}

func resolveTimedGames(score models.MatchScore, rules *models.ScoreRules) (*MatchStats, error) {
	if score.GamesA == nil || score.GamesB == nil || *score.GamesA < 0 || *score.GamesB < 0 {
		return nil, ErrInvalidScore
	}

	a, b := *score.GamesA, *score.GamesB
	stats := &MatchStats{AGames: a, BGames: b, ResultType: models.ResultNormal}
	switch {
	case a > b:
		stats.Winner = models.SideA
	case b > a:
		stats.Winner = models.SideB
	default:
		if rules != nil && !rules.AllowTimedDraw {
			return nil, ErrInvalidScore
		}
		stats.IsDraw = true
	}
	return stats, nil
}

func resolveSets(sets []models.SetScore, rules *models.ScoreRules) (*MatchStats, error) {
	if len(sets) == 0 {
		return nil, ErrInvalidScore
	}
	if rules != nil && len(sets) > rules.MaxSets {
		return nil, ErrInvalidScore
	}

	var aSets, bSets int
	for i, s := range sets {
		if s.TeamA < 0 || s.TeamB < 0 || s.TeamA == s.TeamB {
			return nil, ErrInvalidScore
		}

		if rules != nil {
			isLast := i == len(sets)-1
			canSuper := rules.AllowSuperTieBreak && isLast && (!rules.SuperTieBreakOnlyDecider || aSets == bSets)
			if !(canSuper && validSuperTieBreak(s, rules)) && !validRegularSet(s, rules) {
				return nil, ErrInvalidScore
			}
		}

		if s.TeamA > s.TeamB {
			aSets++
		} else {
			bSets++
		}

		// 승부가 결정된 뒤의 세트는 허용하지 않음
		if rules != nil && (aSets == rules.SetsToWin || bSets == rules.SetsToWin) && i < len(sets)-1 {
			return nil, ErrInvalidScore
		}
	}

	if aSets == bSets {
		return nil, ErrInvalidScore
	}
	if rules != nil && aSets != rules.SetsToWin && bSets != rules.SetsToWin {
		return nil, ErrInvalidScore
	}

	stats := tallySets(sets)
	stats.ResultType = models.ResultNormal
	if aSets > bSets {
		stats.Winner = models.SideA
	} else {
		stats.Winner = models.SideB
	}
	return stats, nil
}

func tallySets(sets []models.SetScore) *MatchStats {
	stats := &MatchStats{}
	for _, s := range sets {
		stats.AGames += s.TeamA
		stats.BGames += s.TeamB
		switch {
		case s.TeamA > s.TeamB:
			stats.ASets++
		case s.TeamB > s.TeamA:
			stats.BSets++
		}
	}
	return stats
}

func validRegularSet(s models.SetScore, rules *models.ScoreRules) bool {
	hi, lo := max(s.TeamA, s.TeamB), min(s.TeamA, s.TeamB)
	diff := hi - lo
	games := rules.GamesToWinSet

	if hi < games {
		return false
	}
	if hi == games {
		return diff >= 2
	}
	if hi == games+1 && diff >= 2 {
		return true
	}
	if rules.TieBreakAt != nil && rules.TieBreakTo != nil && hi == *rules.TieBreakTo && lo == *rules.TieBreakAt {
		return true
	}
	if rules.AllowExtendedGames || rules.TieBreakAt == nil || rules.TieBreakTo == nil {
		return diff >= 2
	}
	return false
}

func validSuperTieBreak(s models.SetScore, rules *models.ScoreRules) bool {
	hi, lo := max(s.TeamA, s.TeamB), min(s.TeamA, s.TeamB)
	return hi >= rules.SuperTieBreakTo && hi-lo >= rules.SuperTieBreakWinBy
}

// WinnerPairing 승자 쪽의 페어링 ID
func WinnerPairing(side models.Side, pairingA, pairingB *string) *string {
	switch side {
	case models.SideA:
		return pairingA
	case models.SideB:
		return pairingB
	}
	return nil
}
