package padel

import (
	"fmt"
	"sort"

	"github.com/padel-arena/padel-arena-backend/internal/models"
)

// SelectQualifiers 조별 상위 perGroup 팀과 와일드카드 extra 팀 선발.
// 와일드카드는 조 순위 perGroup+1 이하 팀 중 승점, 세트 득실, 게임 득실, 세트 득점 순.
func SelectQualifiers(standings GroupStandings, labels []string, perGroup, extra int) []models.KnockoutSeed {
	var seeds, rest []models.KnockoutSeed

	for _, label := range labels {
		for rank, row := range standings[label] {
			seed := models.KnockoutSeed{
				PairingID:  row.PairingID,
				GroupLabel: label,
				GroupRank:  rank + 1,
				Points:     row.Points,
				SetDiff:    row.SetDiff,
				GameDiff:   row.GameDiff,
				SetsFor:    row.SetsFor,
			}
			if rank < perGroup {
				seeds = append(seeds, seed)
			} else {
				rest = append(rest, seed)
			}
		}
	}

	if extra > 0 && len(rest) > 0 {
		sort.SliceStable(rest, func(i, j int) bool { return seedLess(rest[i], rest[j]) })
		if extra > len(rest) {
			extra = len(rest)
		}
		for _, s := range rest[:extra] {
			s.Wildcard = true
			seeds = append(seeds, s)
		}
	}
	return seeds
}

// SeedQualifiers 조 순위 → 승점 → 세트 득실 → 게임 득실 → 세트 득점 순으로 시드 번호 부여.
// 와일드카드는 항상 조별 진출 팀 뒤.
func SeedQualifiers(qualifiers []models.KnockoutSeed) []models.KnockoutSeed {
	out := append([]models.KnockoutSeed(nil), qualifiers...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wildcard != b.Wildcard {
			return !a.Wildcard
		}
		if a.GroupRank != b.GroupRank {
			return a.GroupRank < b.GroupRank
		}
		return seedLess(a, b)
	})
	for i := range out {
		out[i].Seed = i + 1
	}
	return out
}

func seedLess(a, b models.KnockoutSeed) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.SetDiff != b.SetDiff {
		return a.SetDiff > b.SetDiff
	}
	if a.GameDiff != b.GameDiff {
		return a.GameDiff > b.GameDiff
	}
	if a.SetsFor != b.SetsFor {
		return a.SetsFor > b.SetsFor
	}
	if a.GroupLabel != b.GroupLabel {
		return a.GroupLabel < b.GroupLabel
	}
	return a.PairingID < b.PairingID
}

// BracketMatch 대진표의 한 경기
type BracketMatch struct {
	Round     int // 1 = 첫 라운드
	Position  int // 라운드 안에서의 위치 (0부터)
	Label     string
	A, B      *string
	AGroup    string
	BGroup    string
	Next      int // 다음 경기 인덱스, 결승은 -1
	NextSlot  models.Side
	Bye       bool
	ByeWinner *string
}

// Bracket 단판 토너먼트 대진표. Matches는 라운드 순서대로 정렬된다.
type Bracket struct {
	Size    int
	Rounds  int
	Matches []BracketMatch
}

// BuildBracket 시드 순으로 정렬된 진출 팀으로 대진표 생성.
// 2의 거듭제곱으로 맞추고 남는 자리는 상위 시드의 부전승.
// 1번 시드와 2번 시드는 결승에서만 만나도록 배치한다.
// 같은 조 팀은 가능하면 서로 다른 절반(결승 전에는 만나지 않음)으로 보내고,
// 그래도 첫 라운드에 만나면 다른 경기와 하위 시드를 맞바꾼다.
func BuildBracket(seeds []models.KnockoutSeed) (*Bracket, error) {
	n := len(seeds)
	if n < 2 {
		return nil, ErrNotEnoughPairings
	}

	size := 1
	rounds := 0
	for size < n {
		size <<= 1
		rounds++
	}

	order := seedOrder(size)
	first := make([]BracketMatch, size/2)
	for i := range first {
		hi, lo := order[2*i], order[2*i+1]
		m := BracketMatch{Round: 1, Position: i}
		if hi <= n {
			id := seeds[hi-1].PairingID
			m.A, m.AGroup = &id, seeds[hi-1].GroupLabel
		}
		if lo <= n {
			id := seeds[lo-1].PairingID
			m.B, m.BGroup = &id, seeds[lo-1].GroupLabel
		}
		first[i] = m
	}
	separateHalves(first)
	separateGroups(first)

	b := &Bracket{Size: size, Rounds: rounds}
	offset := 0
	for r := 1; r <= rounds; r++ {
		count := size >> r
		for p := 0; p < count; p++ {
			var m BracketMatch
			if r == 1 {
				m = first[p]
			} else {
				m = BracketMatch{Round: r, Position: p}
			}
			m.Label = RoundLabel(count)
			m.Next = -1
			if r < rounds {
				m.Next = offset + count + p/2
				m.NextSlot = models.SideA
				if p%2 == 1 {
					m.NextSlot = models.SideB
				}
			}
			b.Matches = append(b.Matches, m)
		}
		offset += count
	}

	// 부전승은 바로 다음 라운드 슬롯으로 진출
	for i := range b.Matches {
		m := &b.Matches[i]
		if m.Round != 1 || (m.A != nil && m.B != nil) {
			continue
		}
		m.Bye = true
		m.ByeWinner = m.A
		if m.ByeWinner == nil {
			m.ByeWinner = m.B
		}
		if m.Next >= 0 {
			next := &b.Matches[m.Next]
			if m.NextSlot == models.SideA {
				next.A = m.ByeWinner
			} else {
				next.B = m.ByeWinner
			}
		}
	}
	return b, nil
}

// seedOrder 표준 대진 순서. size=4 → [1 4 2 3], size=8 → [1 8 4 5 2 7 3 6]
func seedOrder(size int) []int {
	order := []int{1}
	for length := 1; length < size; length <<= 1 {
		next := make([]int, 0, length*2)
		for _, s := range order {
			next = append(next, s, 2*length+1-s)
		}
		order = next
	}
	return order
}

// separateHalves 하위 시드(B 슬롯)를 반대쪽 절반과 맞바꿔
// 같은 조 팀이 한쪽 절반에 몰리지 않게 한다. 상위 시드 위치는 그대로.
func separateHalves(first []BracketMatch) {
	half := len(first) / 2
	if half == 0 {
		return
	}
	halfOf := func(i int) int { return i / half }

	// i번 경기 B 슬롯을 제외하고 h쪽 절반에 group 팀이 있는지
	crowded := func(h int, group string, skip int) bool {
		for k := h * half; k < (h+1)*half; k++ {
			if first[k].A != nil && first[k].AGroup == group {
				return true
			}
			if k != skip && first[k].B != nil && first[k].BGroup == group {
				return true
			}
		}
		return false
	}

	for i := range first {
		if first[i].B == nil || first[i].BGroup == "" || !crowded(halfOf(i), first[i].BGroup, i) {
			continue
		}
		other := 1 - halfOf(i)
		for j := other * half; j < (other+1)*half; j++ {
			if first[j].B == nil || first[j].BGroup == first[i].BGroup {
				continue
			}
			if crowded(other, first[i].BGroup, j) || crowded(halfOf(i), first[j].BGroup, i) {
				continue
			}
			if first[i].AGroup == first[j].BGroup || first[j].AGroup == first[i].BGroup {
				continue
			}
			first[i].B, first[j].B = first[j].B, first[i].B
			first[i].BGroup, first[j].BGroup = first[j].BGroup, first[i].BGroup
			break
		}
	}
}

func separateGroups(first []BracketMatch) {
	clash := func(m BracketMatch) bool {
		return m.A != nil && m.B != nil && m.AGroup != "" && m.AGroup == m.BGroup
	}

	for i := range first {
		if !clash(first[i]) {
			continue
		}
		for j := range first {
			if i == j || first[j].B == nil {
				continue
			}
			if first[i].AGroup == first[j].BGroup || first[j].AGroup == first[i].BGroup {
				continue
			}
			first[i].B, first[j].B = first[j].B, first[i].B
			first[i].BGroup, first[j].BGroup = first[j].BGroup, first[i].BGroup
			break
		}
	}
}

// RoundLabel 라운드의 경기 수로 이름 결정
func RoundLabel(matchesInRound int) string {
	switch matchesInRound {
	case 1:
		return "FINAL"
	case 2:
		return "SEMIFINAL"
	case 4:
		return "QUARTERFINAL"
	default:
		return fmt.Sprintf("R%d", matchesInRound*2)
	}
}
