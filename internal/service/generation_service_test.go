package service

import (
	"context"
	"testing"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/internal/testutil"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const ownerID = "user-owner"

// chanNotifier 발송된 알림을 채널로 전달
type chanNotifier chan MatchEvent

func (c chanNotifier) Notify(_ context.Context, ev MatchEvent) error {
	c <- ev
	return nil
}

type env struct {
	f          *testutil.Fixture
	authz      *Authorizer
	generation *GenerationService
	results    *ResultService
	events     chanNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	f := testutil.SeedEvent(t, db)
	f.AddMember(t, ownerID, models.RoleOwner, models.AccessNone)

	events := make(chanNotifier, 64)
	authz := NewAuthorizer(repository.NewDirectoryRepository(db))
	return &env{
		f:          f,
		authz:      authz,
		generation: NewGenerationService(db, authz, nil, 30*time.Second, events, zap.NewNop()),
		results:    NewResultService(db, authz, events, time.Minute, 20, zap.NewNop()),
		events:     events,
	}
}

func (e *env) db() *database.DB { return e.f.DB }

func (e *env) generate(t *testing.T, format, phase string) (*GenerateResult, error) {
	t.Helper()
	return e.generation.Generate(context.Background(), ownerID, GenerateInput{
		EventID:    e.f.Event.ID,
		CategoryID: &e.f.CategoryID,
		Format:     format,
		Phase:      phase,
	})
}

func (e *env) list(t *testing.T, round models.RoundType) []models.Match {
	t.Helper()
	matches, err := repository.NewMatchRepository(e.db()).List(context.Background(), repository.MatchFilter{
		EventID:    e.f.Event.ID,
		CategoryID: &e.f.CategoryID,
		RoundType:  round,
	})
	require.NoError(t, err)
	return matches
}

func (e *env) waitEvent(t *testing.T) MatchEvent {
	t.Helper()
	select {
	case ev := <-e.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("notification not dispatched")
		return MatchEvent{}
	}
}

func (e *env) assertNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.events:
		t.Fatalf("unexpected notification %s", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGenerate_RoundRobinFourPairings(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "TODOS_CONTRA_TODOS", nil)
	e.f.AddConfirmedPairings(t, 4)

	res, err := e.generate(t, "", "")
	require.NoError(t, err)

	assert.Equal(t, padel.FormatRoundRobin, res.Format)
	assert.Equal(t, padel.PhaseGroups, res.Phase)
	require.Len(t, res.Matches, 6)

	appearances := map[string]int{}
	for _, m := range res.Matches {
		assert.Equal(t, models.RoundGroups, m.RoundType)
		assert.Equal(t, res.GenerationVersion, m.GenerationVersion)
		require.NotNil(t, m.GroupLabel)
		assert.Equal(t, "A", *m.GroupLabel)
		assert.NotEmpty(t, m.CourtName)
		appearances[*m.PairingAID]++
		appearances[*m.PairingBID]++
	}
	require.Len(t, appearances, 4)
	for id, n := range appearances {
		assert.Equal(t, 3, n, id)
	}

	cfg, err := repository.NewDirectoryRepository(e.db()).FindTournamentConfig(context.Background(), e.f.Event.ID)
	require.NoError(t, err)
	assert.Equal(t, res.GenerationVersion, cfg.GenerationVersion)

	logs, err := repository.NewAuditLogRepository(e.db()).Recent(context.Background(), e.f.Event.ID,
		[]models.AuditAction{models.AuditGenerateMatches}, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 6, logs[0].PayloadAfter.Data().MatchCount)

	ev := e.waitEvent(t)
	assert.Equal(t, NotifyMatchesGenerated, ev.Kind)
	assert.Len(t, ev.MatchIDs, 6)
	assert.Len(t, ev.PairingIDs, 4)
}

func TestGenerate_RoundRobinReplacesUnplayed(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "TODOS_CONTRA_TODOS", nil)
	e.f.AddConfirmedPairings(t, 4)

	first, err := e.generate(t, "", "")
	require.NoError(t, err)

	second, err := e.generate(t, "", "")
	require.NoError(t, err)
	assert.Equal(t, 6, second.Replaced)
	assert.NotEqual(t, first.GenerationVersion, second.GenerationVersion)
	assert.Len(t, e.list(t, models.RoundGroups), 6)

	// 결과가 하나라도 있으면 재생성 불가
	_, err = e.results.SubmitResult(context.Background(), ownerID, second.Matches[0].ID, models.MatchScore{
		Sets: []models.SetScore{{TeamA: 6, TeamB: 2}, {TeamA: 6, TeamB: 3}},
	})
	require.NoError(t, err)

	_, err = e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeScheduleHasResults))
	assert.Len(t, e.list(t, models.RoundGroups), 6)
}

func TestGenerate_InputValidation(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "", nil)
	e.f.AddConfirmedPairings(t, 4)

	tests := []struct {
		name    string
		eventID string
		format  string
		phase   string
		want    string
	}{
		{"알 수 없는 포맷은 이벤트 조회 전에 거부", "missing-event", "FOO", "", CodeInvalidFormat},
		{"미지원 포맷", e.f.Event.ID, "AMERICANO", "", CodeFormatNotSupported},
		{"인터클럽", e.f.Event.ID, "INTERCLUB", "", CodeTeamEngineRequired},
		{"잘못된 페이즈", e.f.Event.ID, "ROUND_ROBIN", "KNOCKOUT", CodeInvalidPhase},
		{"없는 이벤트", "missing-event", "ROUND_ROBIN", "", CodeEventNotFound},
		{"설정 포맷도 없음", e.f.Event.ID, "", "", CodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.generation.Generate(context.Background(), ownerID, GenerateInput{
				EventID:    tt.eventID,
				CategoryID: &e.f.CategoryID,
				Format:     tt.format,
				Phase:      tt.phase,
			})
			assert.ErrorIs(t, err, Reason(tt.want))
		})
	}
}

func TestGenerate_InterclubConfig(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "ROUND_ROBIN", func(c *models.TournamentConfig) { c.IsInterclub = true })
	e.f.AddConfirmedPairings(t, 4)

	_, err := e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeTeamEngineRequired))
}

func TestGenerate_Authorization(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "ROUND_ROBIN", nil)
	e.f.AddConfirmedPairings(t, 4)
	e.f.AddMember(t, "viewer", models.RoleViewer, models.AccessEdit)
	e.f.AddMember(t, "staff-view", models.RoleStaff, models.AccessView)
	e.f.AddMember(t, "admin-edit", models.RoleAdmin, models.AccessEdit)

	tests := []struct {
		user string
		want string
	}{
		{"", CodeUnauthenticated},
		{"stranger", CodeForbidden},
		{"viewer", CodeForbidden},
		{"staff-view", CodeForbidden},
		{"admin-edit", ""},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			_, err := e.generation.Generate(context.Background(), tt.user, GenerateInput{
				EventID:    e.f.Event.ID,
				CategoryID: &e.f.CategoryID,
			})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, Reason(tt.want))
		})
	}
}

func TestGenerate_CategoryState(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "ROUND_ROBIN", nil)
	e.f.AddConfirmedPairings(t, 4)

	other := "unknown-category"
	_, err := e.generation.Generate(context.Background(), ownerID, GenerateInput{EventID: e.f.Event.ID, CategoryID: &other})
	assert.ErrorIs(t, err, Reason(CodeCategoryNotAvailable))

	require.NoError(t, e.db().Model(&models.EventCategory{}).
		Where("event_id = ? AND category_id = ?", e.f.Event.ID, e.f.CategoryID).
		Update("archived", true).Error)
	_, err = e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeTournamentConfigLocked))

	require.NoError(t, e.db().Model(&models.EventCategory{}).
		Where("event_id = ? AND category_id = ?", e.f.Event.ID, e.f.CategoryID).
		Update("enabled", false).Error)
	_, err = e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeCategoryNotAvailable))

	assert.Empty(t, e.list(t, ""))
}

func TestGenerate_NotEnoughPairings(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "ROUND_ROBIN", nil)
	e.f.AddConfirmedPairings(t, 1)

	_, err := e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeGenerationFailed))
}

func TestGenerate_GroupsTwice(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "GRUPOS_ELIMINATORIAS", nil)
	e.f.AddConfirmedPairings(t, 8)

	res, err := e.generate(t, "", "GROUPS")
	require.NoError(t, err)
	assert.Len(t, res.Matches, 12)

	labels := map[string]int{}
	for _, m := range res.Matches {
		labels[*m.GroupLabel]++
	}
	assert.Equal(t, map[string]int{"A": 6, "B": 6}, labels)

	_, err = e.generate(t, "", "GROUPS")
	assert.ErrorIs(t, err, Reason(CodeGroupsAlreadyGenerated))

	// 조별 리그 생성은 알리지 않는다
	e.assertNoEvent(t)
}

func TestGenerate_QualifyExceedsGroupSize(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "GRUPOS_ELIMINATORIAS", func(c *models.TournamentConfig) {
		gc := c.GroupsConfig.Data()
		gc.QualifyPerGroup = 3
		c.GroupsConfig = datatypes.NewJSONType(gc)
	})
	e.f.AddConfirmedPairings(t, 4)

	_, err := e.generate(t, "", "GROUPS")
	assert.ErrorIs(t, err, Reason(CodeQualifyExceedsGroupSize))
}

func TestGenerate_KnockoutRequiresGroups(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "GRUPOS_ELIMINATORIAS", nil)
	e.f.AddConfirmedPairings(t, 8)

	_, err := e.generate(t, "", "KNOCKOUT")
	assert.ErrorIs(t, err, Reason(CodeGroupsNotGenerated))

	_, err = e.generate(t, "", "GROUPS")
	require.NoError(t, err)

	_, err = e.generate(t, "", "KNOCKOUT")
	assert.ErrorIs(t, err, Reason(CodeGroupsNotFinished))
	assert.Empty(t, e.list(t, models.RoundKnockout))
}

func TestGenerate_AllowIncompleteRequiresSeniorRole(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "GRUPOS_ELIMINATORIAS", nil)
	e.f.AddConfirmedPairings(t, 8)
	e.f.AddMember(t, "admin", models.RoleAdmin, models.AccessEdit)

	_, err := e.generate(t, "", "GROUPS")
	require.NoError(t, err)

	in := GenerateInput{EventID: e.f.Event.ID, CategoryID: &e.f.CategoryID, Phase: "KNOCKOUT", AllowIncomplete: true}
	_, err = e.generation.Generate(context.Background(), "admin", in)
	assert.ErrorIs(t, err, Reason(CodeForbidden))

	res, err := e.generation.Generate(context.Background(), ownerID, in)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
	assert.Len(t, res.Seeds, 4)

	snapshot, err := repository.NewKnockoutGenerationRepository(e.db()).Latest(context.Background(), e.f.Event.ID, &e.f.CategoryID)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Override)
	assert.Equal(t, ownerID, snapshot.GeneratedBy)
	assert.Equal(t, res.GenerationVersion, snapshot.GenerationVersion)
}

func TestGenerate_GroupsThenKnockout(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "GRUPOS_ELIMINATORIAS", nil)
	pairings := e.f.AddConfirmedPairings(t, 8)

	// 등록 순서가 빠른 팀이 항상 이긴다
	rank := map[string]int{}
	for i, p := range pairings {
		rank[p.ID] = i
	}

	groups, err := e.generate(t, "", "GROUPS")
	require.NoError(t, err)

	members := map[string][]string{}
	for _, m := range groups.Matches {
		score := models.MatchScore{Sets: []models.SetScore{{TeamA: 6, TeamB: 2}, {TeamA: 6, TeamB: 3}}}
		if rank[*m.PairingBID] < rank[*m.PairingAID] {
			score = models.MatchScore{Sets: []models.SetScore{{TeamA: 2, TeamB: 6}, {TeamA: 3, TeamB: 6}}}
		}
		_, err := e.results.SubmitResult(context.Background(), ownerID, m.ID, score)
		require.NoError(t, err)

		label := *m.GroupLabel
		for _, id := range []string{*m.PairingAID, *m.PairingBID} {
			if !contains(members[label], id) {
				members[label] = append(members[label], id)
			}
		}
	}
	for label := range members {
		sortByRank(members[label], rank)
	}

	ko, err := e.generate(t, "", "KNOCKOUT")
	require.NoError(t, err)
	require.Len(t, ko.Matches, 3)

	pairs := map[string]string{}
	for _, m := range ko.Matches[:2] {
		assert.Equal(t, "SEMIFINAL", m.RoundLabel)
		require.NotNil(t, m.NextMatchID)
		assert.Equal(t, ko.Matches[2].ID, *m.NextMatchID)
		pairs[*m.PairingAID] = *m.PairingBID
	}
	assert.Equal(t, members["B"][1], pairs[members["A"][0]])
	assert.Equal(t, members["A"][1], pairs[members["B"][0]])

	final := ko.Matches[2]
	assert.Equal(t, "FINAL", final.RoundLabel)
	assert.Nil(t, final.PairingAID)
	assert.Nil(t, final.PairingBID)

	// 녹아웃 재생성은 아직 경기가 없으니 교체
	again, err := e.generate(t, "", "KNOCKOUT")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Replaced)

	_, err = e.results.SubmitResult(context.Background(), ownerID, again.Matches[0].ID, models.MatchScore{
		Sets: []models.SetScore{{TeamA: 6, TeamB: 4}, {TeamA: 6, TeamB: 4}},
	})
	require.NoError(t, err)
	_, err = e.generate(t, "", "KNOCKOUT")
	assert.ErrorIs(t, err, Reason(CodeKnockoutLocked))
}

func TestGenerate_SingleEliminationByes(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "QUADRO_ELIMINATORIO", nil)
	e.f.AddConfirmedPairings(t, 5)

	res, err := e.generate(t, "", "")
	require.NoError(t, err)
	require.Len(t, res.Matches, 7)

	byID := map[string]models.Match{}
	for _, m := range res.Matches {
		byID[m.ID] = m
	}

	byes := 0
	for _, m := range res.Matches {
		if m.Score.Data().ResultType != models.ResultBye {
			continue
		}
		byes++
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		require.NotNil(t, m.WinnerPairingID)
		require.NotNil(t, m.NextMatchID)
		next := byID[*m.NextMatchID]
		assert.Equal(t, *m.WinnerPairingID, *next.SlotValue(*m.NextSlot))
	}
	assert.Equal(t, 3, byes)

	// 부전승만 있는 상태에서는 재생성 가능
	again, err := e.generate(t, "", "")
	require.NoError(t, err)
	assert.Equal(t, 7, again.Replaced)
}

func TestGenerate_SeededPairingsFirst(t *testing.T) {
	e := newEnv(t)
	e.f.SetConfig(t, "QUADRO_ELIMINATORIO", nil)
	pairings := e.f.AddConfirmedPairings(t, 4)

	top := pairings[3]
	seed := 1
	require.NoError(t, e.db().Model(&models.Pairing{}).Where("id = ?", top.ID).Update("seed_rank", seed).Error)

	res, err := e.generate(t, "", "")
	require.NoError(t, err)
	require.NotEmpty(t, res.Seeds)
	assert.Equal(t, top.ID, res.Seeds[0].PairingID)
}

func TestGenerate_LockContention(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 14})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	e := newEnv(t)
	e.f.SetConfig(t, "ROUND_ROBIN", nil)
	e.f.AddConfirmedPairings(t, 4)

	locks := distributed.NewLockManager(client, "padel-test")
	e.generation.locks = locks

	held, err := locks.Acquire(ctx, distributed.GenerationLockKey(e.f.Event.ID, &e.f.CategoryID), 10*time.Second)
	require.NoError(t, err)

	_, err = e.generate(t, "", "")
	assert.ErrorIs(t, err, Reason(CodeGenerationInProgress))

	require.NoError(t, held.Release(ctx))
	_, err = e.generate(t, "", "")
	assert.NoError(t, err)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortByRank(ids []string, rank map[string]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && rank[ids[j]] < rank[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
