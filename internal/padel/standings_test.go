package padel

import (
	"testing"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func played(group, a, b string, score ...int) models.Match {
	return models.Match{
		RoundType:  models.RoundGroups,
		GroupLabel: strPtr(group),
		Status:     models.MatchStatusCompleted,
		PairingAID: strPtr(a),
		PairingBID: strPtr(b),
		Score:      datatypes.NewJSONType(models.MatchScore{Sets: sets(score...)}),
	}
}

func pending(group, a, b string) models.Match {
	return models.Match{
		RoundType:  models.RoundGroups,
		GroupLabel: strPtr(group),
		Status:     models.MatchStatusScheduled,
		PairingAID: strPtr(a),
		PairingBID: strPtr(b),
	}
}

func order(rows []StandingRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.PairingID
	}
	return out
}

func TestComputeStandings_PointsAndAggregates(t *testing.T) {
	matches := []models.Match{
		played("A", "p1", "p2", 6, 1, 6, 2),
		played("A", "p3", "p4", 6, 4, 3, 6, 6, 3),
		played("A", "p1", "p3", 6, 0, 6, 0),
		played("A", "p2", "p4", 2, 6, 2, 6),
		pending("A", "p1", "p4"),
		pending("A", "p2", "p3"),
	}

	table := ComputeStandings(matches, models.PointsTable{}, nil)
	rows := table["A"]
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"p1", "p3", "p4", "p2"}, order(rows), "p3 beat p4 head to head")

	p1 := rows[0]
	assert.Equal(t, 6, p1.Points)
	assert.Equal(t, 2, p1.Wins)
	assert.Equal(t, 4, p1.SetsFor)
	assert.Equal(t, 0, p1.SetsAgainst)
	assert.Equal(t, 24, p1.GamesFor)
	assert.Equal(t, 3, p1.GamesAgainst)

	p2 := rows[3]
	assert.Equal(t, 0, p2.Points)
	assert.Equal(t, 2, p2.Losses)
}

func TestComputeStandings_UnscoredMatchesKeepZeroRows(t *testing.T) {
	matches := []models.Match{
		pending("B", "p1", "p2"),
		{GroupLabel: strPtr("B"), Status: models.MatchStatusCompleted, PairingAID: strPtr("p3"), PairingBID: strPtr("p1")},
	}
	rows := ComputeStandings(matches, models.PointsTable{}, nil)["B"]
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Zero(t, r.Points)
		assert.Zero(t, r.Wins+r.Losses+r.Draws)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, order(rows), "unresolved ties keep input order")
}

func TestComputeStandings_HeadToHeadWithinTiedSubset(t *testing.T) {
	// p1, p2, p3 모두 6점이고 서로 물고 물리는 관계라 미니 리그도 동률.
	// 세트 득실도 모두 +2라서 게임 득실로 갈린다.
	matches := []models.Match{
		played("A", "p1", "p2", 6, 0, 6, 0),
		played("A", "p2", "p3", 6, 4, 6, 4),
		played("A", "p3", "p1", 6, 3, 6, 3),
		played("A", "p1", "p4", 6, 0, 6, 0),
		played("A", "p2", "p4", 6, 0, 6, 0),
		played("A", "p3", "p4", 6, 0, 6, 0),
	}
	rows := ComputeStandings(matches, models.PointsTable{}, nil)["A"]
	require.Len(t, rows, 4)
	for _, r := range rows[:3] {
		assert.Equal(t, 6, r.Points)
		assert.Equal(t, 2, r.SetDiff)
	}
	assert.Equal(t, []string{"p1", "p3", "p2", "p4"}, order(rows))
}

func TestComputeStandings_SetDifferenceOnly(t *testing.T) {
	matches := []models.Match{
		played("A", "p1", "p2", 4, 6, 4, 6), // p2 beats p1
		played("A", "p1", "p3", 6, 0, 6, 0),
		played("A", "p2", "p3", 6, 4, 4, 6, 6, 4),
		played("A", "p3", "p1", 6, 4, 6, 4), // p3 beats p1
		played("A", "p3", "p2", 6, 4, 6, 4), // p3 beats p2
		played("A", "p2", "p1", 4, 6, 4, 6), // p1 beats p2
	}
	// 승점은 모두 6. 세트 득실 p3 +1, p1 0, p2 -1
	rows := ComputeStandings(matches, models.PointsTable{}, []models.TieBreakRule{models.TieBreakSetDifference})
	require.Len(t, rows["A"], 3)
	assert.Equal(t, []string{"p3", "p1", "p2"}, order(rows["A"]))
}

func TestComputeStandings_RuleOrderMatters(t *testing.T) {
	// p1과 p2는 승점 동률. p2가 직접 대결 승리, p1이 게임 득실 우위.
	matches := []models.Match{
		played("A", "p1", "p2", 6, 7, 6, 7),
		played("A", "p1", "p3", 6, 0, 6, 0),
		played("A", "p1", "p4", 6, 0, 6, 0),
		played("A", "p2", "p3", 7, 5, 7, 5),
		played("A", "p4", "p2", 6, 0, 6, 0),
	}

	h2hFirst := ComputeStandings(matches, models.PointsTable{}, []models.TieBreakRule{models.TieBreakHeadToHead, models.TieBreakGameDifference})
	gamesFirst := ComputeStandings(matches, models.PointsTable{}, []models.TieBreakRule{models.TieBreakGameDifference, models.TieBreakHeadToHead})

	assert.Equal(t, "p2", h2hFirst["A"][0].PairingID)
	assert.Equal(t, "p1", h2hFirst["A"][1].PairingID)
	assert.Equal(t, "p1", gamesFirst["A"][0].PairingID)
	assert.Equal(t, "p2", gamesFirst["A"][1].PairingID)
}

func TestComputeStandings_Deterministic(t *testing.T) {
	matches := []models.Match{
		played("A", "p1", "p2", 6, 4, 6, 4),
		played("A", "p3", "p4", 6, 4, 6, 4),
		played("B", "p5", "p6", 6, 4, 6, 4),
		played("B", "p7", "p8", 6, 4, 6, 4),
	}
	rules := []models.TieBreakRule{models.TieBreakHeadToHead, models.TieBreakCoinToss}
	first := ComputeStandings(matches, models.PointsTable{}, rules)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputeStandings(matches, models.PointsTable{}, rules))
	}
	for _, label := range []string{"A", "B"} {
		rows := first[label]
		for i := 1; i < len(rows); i++ {
			assert.GreaterOrEqual(t, rows[i-1].Points, rows[i].Points)
		}
	}
}

func TestComputeStandings_CustomPointsAndExclusions(t *testing.T) {
	win, loss := 2, 1
	bye := models.Match{
		GroupLabel: strPtr("A"), Status: models.MatchStatusCompleted,
		PairingAID: strPtr("p1"), PairingBID: strPtr("p2"),
		Score: datatypes.NewJSONType(models.MatchScore{ResultType: models.ResultBye, WinnerSide: models.SideA}),
	}
	cancelled := played("A", "p2", "p1", 6, 0, 6, 0)
	cancelled.Status = models.MatchStatusCancelled

	matches := []models.Match{played("A", "p1", "p2", 6, 0, 6, 0), bye, cancelled}
	rows := ComputeStandings(matches, models.PointsTable{Win: &win, Loss: &loss}, nil)["A"]
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].PairingID)
	assert.Equal(t, 2, rows[0].Points)
	assert.Equal(t, 1, rows[1].Points)
	assert.Equal(t, 1, rows[0].Wins)
}

func TestNormalizeTieBreakRules(t *testing.T) {
	assert.Equal(t, DefaultTieBreakRules, NormalizeTieBreakRules(nil))
	assert.Equal(t,
		[]models.TieBreakRule{models.TieBreakGamesFor, models.TieBreakHeadToHead},
		NormalizeTieBreakRules([]models.TieBreakRule{"POINTS", "GAMES_FOR", "BOGUS", "HEAD_TO_HEAD", "GAMES_FOR"}),
	)
}
