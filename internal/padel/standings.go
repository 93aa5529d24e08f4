package padel

import (
	"sort"

	"github.com/padel-arena/padel-arena-backend/internal/models"
)

// StandingRow 조 순위표 한 줄
type StandingRow struct {
	PairingID    string `json:"pairingId"`
	Points       int    `json:"points"`
	Wins         int    `json:"wins"`
	Draws        int    `json:"draws"`
	Losses       int    `json:"losses"`
	SetsFor      int    `json:"setsFor"`
	SetsAgainst  int    `json:"setsAgainst"`
	SetDiff      int    `json:"setDiff"`
	GamesFor     int    `json:"gamesFor"`
	GamesAgainst int    `json:"gamesAgainst"`
	GameDiff     int    `json:"gameDiff"`
}

// GroupStandings 조 라벨 → 정렬된 순위표
type GroupStandings map[string][]StandingRow

// Points 적용 가능한 승점 값 (nil 없음)
type Points struct {
	Win, Draw, Loss int
}

var DefaultTieBreakRules = []models.TieBreakRule{
	models.TieBreakHeadToHead,
	models.TieBreakSetDifference,
	models.TieBreakGameDifference,
	models.TieBreakGamesFor,
}

// NormalizePointsTable 비어 있는 항목은 기본값 (승 3, 무 1, 패 0)
func NormalizePointsTable(t models.PointsTable) Points {
	p := Points{Win: 3, Draw: 1, Loss: 0}
	if t.Win != nil {
		p.Win = *t.Win
	}
	if t.Draw != nil {
		p.Draw = *t.Draw
	}
	if t.Loss != nil {
		p.Loss = *t.Loss
	}
	return p
}

// NormalizeTieBreakRules 알 수 없는 규칙과 중복 제거. 비어 있으면 기본 규칙.
// POINTS는 항상 1차 기준이라 목록에서 빠진다.
func NormalizeTieBreakRules(rules []models.TieBreakRule) []models.TieBreakRule {
	seen := make(map[models.TieBreakRule]bool)
	var out []models.TieBreakRule
	for _, r := range rules {
		switch r {
		case models.TieBreakHeadToHead, models.TieBreakSetDifference, models.TieBreakGameDifference,
			models.TieBreakGamesFor, models.TieBreakSetsFor, models.TieBreakWins, models.TieBreakCoinToss:
		default:
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	if len(out) == 0 && len(rules) == 0 {
		return append([]models.TieBreakRule(nil), DefaultTieBreakRules...)
	}
	return out
}

type scoredMatch struct {
	a, b  string
	stats *MatchStats
}

type groupTable struct {
	order   []string
	rows    map[string]*StandingRow
	matches []scoredMatch
}

// ComputeStandings 완료된 조별 경기로 조별 순위 계산.
// 1차 기준은 승점, 이후 타이브레이크 규칙을 순서대로 적용한다.
// 모든 규칙으로도 가려지지 않는 동률은 입력 순서(처음 등장한 순서)를 유지한다.
func ComputeStandings(matches []models.Match, table models.PointsTable, rules []models.TieBreakRule) GroupStandings {
	points := NormalizePointsTable(table)
	rules = NormalizeTieBreakRules(rules)

	groups := make(map[string]*groupTable)
	var labels []string

	for i := range matches {
		m := &matches[i]
		label := "A"
		if m.GroupLabel != nil && *m.GroupLabel != "" {
			label = *m.GroupLabel
		}
		g, ok := groups[label]
		if !ok {
			g = &groupTable{rows: make(map[string]*StandingRow)}
			groups[label] = g
			labels = append(labels, label)
		}
		for _, id := range []*string{m.PairingAID, m.PairingBID} {
			if id != nil {
				g.ensure(*id)
			}
		}

		if m.Status != models.MatchStatusCompleted || m.PairingAID == nil || m.PairingBID == nil {
			continue
		}
		stats, err := ResolveMatchStats(m.Score.Data(), nil)
		if err != nil || stats.ResultType == models.ResultBye {
			continue
		}
		g.matches = append(g.matches, scoredMatch{a: *m.PairingAID, b: *m.PairingBID, stats: stats})
	}

	out := make(GroupStandings, len(groups))
	for _, label := range labels {
		g := groups[label]
		for _, sm := range g.matches {
			applyResult(g.rows[sm.a], g.rows[sm.b], sm.stats, points)
		}

		ranked := append([]string(nil), g.order...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return g.rows[ranked[i]].Points > g.rows[ranked[j]].Points
		})

		var resolved []string
		for _, cluster := range splitBy(ranked, func(id string) int64 { return int64(g.rows[id].Points) }) {
			resolved = append(resolved, g.refine(cluster, rules, 0, label, points)...)
		}

		rows := make([]StandingRow, 0, len(resolved))
		for _, id := range resolved {
			rows = append(rows, *g.rows[id])
		}
		out[label] = rows
	}
	return out
}

func (g *groupTable) ensure(id string) {
	if _, ok := g.rows[id]; ok {
		return
	}
	g.rows[id] = &StandingRow{PairingID: id}
	g.order = append(g.order, id)
}

func applyResult(a, b *StandingRow, s *MatchStats, p Points) {
	a.SetsFor += s.ASets
	a.SetsAgainst += s.BSets
	a.GamesFor += s.AGames
	a.GamesAgainst += s.BGames
	b.SetsFor += s.BSets
	b.SetsAgainst += s.ASets
	b.GamesFor += s.BGames
	b.GamesAgainst += s.AGames
	a.SetDiff, a.GameDiff = a.SetsFor-a.SetsAgainst, a.GamesFor-a.GamesAgainst
	b.SetDiff, b.GameDiff = b.SetsFor-b.SetsAgainst, b.GamesFor-b.GamesAgainst

	switch {
	case s.IsDraw:
		a.Points += p.Draw
		b.Points += p.Draw
		a.Draws++
		b.Draws++
	case s.Winner == models.SideA:
		a.Points += p.Win
		b.Points += p.Loss
		a.Wins++
		b.Losses++
	case s.Winner == models.SideB:
		b.Points += p.Win
		a.Points += p.Loss
		b.Wins++
		a.Losses++
	}
}

// refine 동률 묶음에 규칙을 차례로 적용.
// 규칙이 묶음을 나누면 더 작은 묶음마다 첫 규칙부터 다시 적용한다 (상대 전적은 좁혀진 묶음 안에서 재계산).
func (g *groupTable) refine(cluster []string, rules []models.TieBreakRule, from int, label string, p Points) []string {
	if len(cluster) <= 1 {
		return cluster
	}

	for idx := from; idx < len(rules); idx++ {
		key := g.metric(rules[idx], cluster, label, p)
		sorted := append([]string(nil), cluster...)
		sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) > key(sorted[j]) })

		parts := splitBy(sorted, key)
		if len(parts) == 1 {
			continue
		}

		var out []string
		for _, part := range parts {
			out = append(out, g.refine(part, rules, 0, label, p)...)
		}
		return out
	}
	return cluster
}

// metric 규칙별 비교 값 (클수록 상위)
func (g *groupTable) metric(rule models.TieBreakRule, cluster []string, label string, p Points) func(string) int64 {
	switch rule {
	case models.TieBreakHeadToHead:
		mini := g.headToHead(cluster, p)
		return func(id string) int64 { return int64(mini[id]) }
	case models.TieBreakSetDifference:
		return func(id string) int64 { return int64(g.rows[id].SetDiff) }
	case models.TieBreakGameDifference:
		return func(id string) int64 { return int64(g.rows[id].GameDiff) }
	case models.TieBreakGamesFor:
		return func(id string) int64 { return int64(g.rows[id].GamesFor) }
	case models.TieBreakSetsFor:
		return func(id string) int64 { return int64(g.rows[id].SetsFor) }
	case models.TieBreakWins:
		return func(id string) int64 { return int64(g.rows[id].Wins) }
	case models.TieBreakCoinToss:
		return func(id string) int64 { return -int64(DrawValue("draw:"+label, id)) }
	}
	return func(string) int64 { return 0 }
}

// headToHead 동률 팀끼리의 경기만으로 계산한 미니 리그 승점
func (g *groupTable) headToHead(cluster []string, p Points) map[string]int {
	in := make(map[string]bool, len(cluster))
	for _, id := range cluster {
		in[id] = true
	}

	mini := make(map[string]int, len(cluster))
	for _, sm := range g.matches {
		if !in[sm.a] || !in[sm.b] {
			continue
		}
		switch {
		case sm.stats.IsDraw:
			mini[sm.a] += p.Draw
			mini[sm.b] += p.Draw
		case sm.stats.Winner == models.SideA:
			mini[sm.a] += p.Win
			mini[sm.b] += p.Loss
		case sm.stats.Winner == models.SideB:
			mini[sm.b] += p.Win
			mini[sm.a] += p.Loss
		}
	}
	return mini
}

// splitBy 정렬된 목록을 같은 키끼리 연속 묶음으로 나눔
func splitBy(sorted []string, key func(string) int64) [][]string {
	var parts [][]string
	for i, id := range sorted {
		if i == 0 || key(id) != key(sorted[i-1]) {
			parts = append(parts, []string{id})
			continue
		}
		parts[len(parts)-1] = append(parts[len(parts)-1], id)
	}
	return parts
}
