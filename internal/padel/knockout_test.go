package padel

import (
	"testing"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eightPairingGroups 8팀 2개 조, 조별 12경기 모두 완료.
// A조: a1 > a2 > a3 > a4, B조: b1 > b2 > b3 > b4
func eightPairingGroups() []models.Match {
	var matches []models.Match
	for _, g := range []struct {
		label string
		teams []string
	}{
		{"A", []string{"a1", "a2", "a3", "a4"}},
		{"B", []string{"b1", "b2", "b3", "b4"}},
	} {
		for i := 0; i < len(g.teams); i++ {
			for j := i + 1; j < len(g.teams); j++ {
				matches = append(matches, played(g.label, g.teams[i], g.teams[j], 6, 2, 6, 3))
			}
		}
	}
	return matches
}

func TestKnockout_EightPairingsTwoGroups(t *testing.T) {
	matches := eightPairingGroups()
	require.Len(t, matches, 12)

	standings := ComputeStandings(matches, models.PointsTable{}, nil)
	qualifiers := SelectQualifiers(standings, []string{"A", "B"}, 2, 0)
	require.Len(t, qualifiers, 4)

	seeds := SeedQualifiers(qualifiers)
	bracket, err := BuildBracket(seeds)
	require.NoError(t, err)

	assert.Equal(t, 4, bracket.Size)
	assert.Equal(t, 2, bracket.Rounds)
	require.Len(t, bracket.Matches, 3)

	semis := bracket.Matches[:2]
	pairs := map[string]string{}
	for _, m := range semis {
		require.NotNil(t, m.A)
		require.NotNil(t, m.B)
		assert.Equal(t, "SEMIFINAL", m.Label)
		assert.NotEqual(t, m.AGroup, m.BGroup, "same-group pairings must not meet in the first round")
		pairs[*m.A] = *m.B
	}
	assert.Equal(t, "b2", pairs["a1"])
	assert.Equal(t, "a2", pairs["b1"])

	final := bracket.Matches[2]
	assert.Equal(t, "FINAL", final.Label)
	assert.Equal(t, -1, final.Next)
	assert.Equal(t, 2, semis[0].Next)
	assert.Equal(t, models.SideA, semis[0].NextSlot)
	assert.Equal(t, models.SideB, semis[1].NextSlot)
}

func TestBuildBracket_SameGroupSwap(t *testing.T) {
	seeds := []models.KnockoutSeed{
		{Seed: 1, PairingID: "a1", GroupLabel: "A"},
		{Seed: 2, PairingID: "b1", GroupLabel: "B"},
		{Seed: 3, PairingID: "b2", GroupLabel: "B"},
		{Seed: 4, PairingID: "a2", GroupLabel: "A"},
	}
	bracket, err := BuildBracket(seeds)
	require.NoError(t, err)
	for _, m := range bracket.Matches[:2] {
		assert.NotEqual(t, m.AGroup, m.BGroup)
	}
}

func TestBuildBracket_FourGroupsOppositeHalves(t *testing.T) {
	standings := GroupStandings{
		"A": {{PairingID: "a1", Points: 9}, {PairingID: "a2", Points: 6}},
		"B": {{PairingID: "b1", Points: 8}, {PairingID: "b2", Points: 5}},
		"C": {{PairingID: "c1", Points: 7}, {PairingID: "c2", Points: 4}},
		"D": {{PairingID: "d1", Points: 6}, {PairingID: "d2", Points: 3}},
	}
	seeds := SeedQualifiers(SelectQualifiers(standings, []string{"A", "B", "C", "D"}, 2, 0))
	require.Len(t, seeds, 8)

	bracket, err := BuildBracket(seeds)
	require.NoError(t, err)
	require.Len(t, bracket.Matches, 7)

	// 같은 조 두 팀은 서로 다른 절반 → 결승 전에는 만나지 않는다
	halfOf := map[string]int{}
	groupOf := map[string]string{}
	for i, m := range bracket.Matches[:4] {
		require.NotNil(t, m.A)
		require.NotNil(t, m.B)
		assert.NotEqual(t, m.AGroup, m.BGroup)
		halfOf[*m.A], groupOf[*m.A] = i/2, m.AGroup
		halfOf[*m.B], groupOf[*m.B] = i/2, m.BGroup
	}
	for _, g := range []string{"a", "b", "c", "d"} {
		assert.NotEqual(t, halfOf[g+"1"], halfOf[g+"2"], "group %s", g)
	}

	// 1, 2번 시드는 여전히 반대쪽 절반의 첫 경기
	assert.Equal(t, "a1", *bracket.Matches[0].A)
	assert.Equal(t, "b1", *bracket.Matches[2].A)
	assert.Len(t, groupOf, 8)
}

func TestBuildBracket_Byes(t *testing.T) {
	var seeds []models.KnockoutSeed
	for i, id := range ids(5) {
		seeds = append(seeds, models.KnockoutSeed{Seed: i + 1, PairingID: id})
	}

	bracket, err := BuildBracket(seeds)
	require.NoError(t, err)
	assert.Equal(t, 8, bracket.Size)
	assert.Equal(t, 3, bracket.Rounds)
	require.Len(t, bracket.Matches, 7)

	byes := 0
	for _, m := range bracket.Matches[:4] {
		assert.Equal(t, "QUARTERFINAL", m.Label)
		if m.Bye {
			byes++
			require.NotNil(t, m.ByeWinner)
			next := bracket.Matches[m.Next]
			assert.Equal(t, *m.ByeWinner, *next.slot(m.NextSlot))
		}
	}
	assert.Equal(t, 3, byes)

	// 1번 시드는 부전승, 4-5번 시드만 첫 라운드 경기
	assert.True(t, bracket.Matches[0].Bye)
	assert.Equal(t, "p1", *bracket.Matches[0].ByeWinner)
	assert.False(t, bracket.Matches[1].Bye)
	assert.Equal(t, "p4", *bracket.Matches[1].A)
	assert.Equal(t, "p5", *bracket.Matches[1].B)
}

func TestBuildBracket_TooFew(t *testing.T) {
	_, err := BuildBracket([]models.KnockoutSeed{{Seed: 1, PairingID: "p1"}})
	assert.ErrorIs(t, err, ErrNotEnoughPairings)
}

func TestSelectQualifiers_Wildcards(t *testing.T) {
	standings := GroupStandings{
		"A": {{PairingID: "a1", Points: 9}, {PairingID: "a2", Points: 6}, {PairingID: "a3", Points: 3}},
		"B": {{PairingID: "b1", Points: 9}, {PairingID: "b2", Points: 6}, {PairingID: "b3", Points: 4}},
	}
	q := SelectQualifiers(standings, []string{"A", "B"}, 1, 2)
	require.Len(t, q, 4)

	seeds := SeedQualifiers(q)
	assert.Equal(t, "a1", seeds[0].PairingID)
	assert.Equal(t, "b1", seeds[1].PairingID)
	assert.True(t, seeds[2].Wildcard)
	assert.True(t, seeds[3].Wildcard)
	assert.ElementsMatch(t, []string{"a2", "b2"}, []string{seeds[2].PairingID, seeds[3].PairingID})
	for i, s := range seeds {
		assert.Equal(t, i+1, s.Seed)
	}
}

func TestRoundLabel(t *testing.T) {
	assert.Equal(t, "FINAL", RoundLabel(1))
	assert.Equal(t, "SEMIFINAL", RoundLabel(2))
	assert.Equal(t, "QUARTERFINAL", RoundLabel(4))
	assert.Equal(t, "R16", RoundLabel(8))
}

func (m BracketMatch) slot(side models.Side) *string {
	if side == models.SideB {
		return m.B
	}
	return m.A
}
