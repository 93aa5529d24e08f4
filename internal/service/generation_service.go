package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// GenerateInput 대진 생성 요청
type GenerateInput struct {
	EventID         string
	CategoryID      *string
	Format          string
	Phase           string
	AllowIncomplete bool
}

// GenerateResult 생성된 대진
type GenerateResult struct {
	Format            padel.Format          `json:"format"`
	Phase             padel.Phase           `json:"phase"`
	GenerationVersion string                `json:"generationVersion"`
	Matches           []models.Match        `json:"matches"`
	Replaced          int                   `json:"replaced"`
	Seeds             []models.KnockoutSeed `json:"koSeedSnapshot,omitempty"`
}

type GenerationService struct {
	db       *database.DB
	authz    *Authorizer
	locks    *distributed.LockManager
	lockTTL  time.Duration
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewGenerationService locks가 nil이면 분산 락 없이 동작
func NewGenerationService(
	db *database.DB,
	authz *Authorizer,
	locks *distributed.LockManager,
	lockTTL time.Duration,
	notifier Notifier,
	logger *zap.Logger,
) *GenerationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &GenerationService{
		db:       db,
		authz:    authz,
		locks:    locks,
		lockTTL:  lockTTL,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate 카테고리의 한 단계(조별/녹아웃) 대진 생성
func (s *GenerationService) Generate(ctx context.Context, actorUserID string, in GenerateInput) (*GenerateResult, error) {
	// 입력 검증 (읽기 전)
	var format padel.Format
	if in.Format != "" {
		f, err := padel.ParseFormat(in.Format)
		if err != nil {
			return nil, fromEngine(err)
		}
		if err := f.Validate(false); err != nil {
			return nil, fromEngine(err)
		}
		format = f
	}

	access, err := s.authz.RequireTournamentEditor(ctx, actorUserID, in.EventID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.loadScope(ctx, in.EventID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	if format == "" {
		if format, err = padel.ParseFormat(cfg.Format); err != nil {
			return nil, fromEngine(err)
		}
	}
	if err := format.Validate(cfg.IsInterclub); err != nil {
		return nil, fromEngine(err)
	}
	phase, err := padel.ResolvePhase(format, in.Phase)
	if err != nil {
		return nil, fromEngine(err)
	}

	if in.AllowIncomplete && phase == padel.PhaseKnockout {
		if err := s.authz.RequireSeniorRole(access); err != nil {
			return nil, err
		}
	}

	release, err := s.acquireLock(ctx, in.EventID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	defer release()

	version := uuid.NewString()
	var result *GenerateResult
	err = s.db.Transaction(ctx, func(tx *database.DB) error {
		g := &generation{
			ctx:      ctx,
			in:       in,
			cfg:      cfg,
			format:   format,
			phase:    phase,
			version:  version,
			now:      s.now(),
			actor:    actorUserID,
			matches:  repository.NewMatchRepository(tx),
			pairings: repository.NewPairingRepository(tx),
			ko:       repository.NewKnockoutGenerationRepository(tx),
		}
		res, err := g.run()
		if err != nil {
			return err
		}

		cfg.Format = string(format)
		cfg.GenerationVersion = version
		if err := repository.NewDirectoryRepository(tx).SaveTournamentConfig(ctx, cfg); err != nil {
			return err
		}

		audit := repository.NewAuditLogRepository(tx)
		if err := audit.Create(ctx, &models.AuditLog{
			OrganizationID: access.Organization.ID,
			TournamentID:   in.EventID,
			Action:         models.AuditGenerateMatches,
			ActorUserID:    actorUserID,
			PayloadAfter: datatypes.NewJSONType(models.AuditPayload{
				Format:            string(format),
				Phase:             string(phase),
				GenerationVersion: version,
				MatchCount:        len(res.Matches),
				Replaced:          res.Replaced,
			}),
			CreatedAt: g.now,
		}); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Matches generated",
		zap.String("eventId", in.EventID),
		zap.Stringp("categoryId", in.CategoryID),
		zap.String("format", string(format)),
		zap.String("phase", string(phase)),
		zap.String("generationVersion", version),
		zap.Int("matches", len(result.Matches)),
		zap.Int("replaced", result.Replaced))

	// 조별 리그 생성은 정보성이라 알리지 않는다
	if !(format.Family() == padel.FamilyGroupsKnockout && phase == padel.PhaseGroups) {
		s.dispatch(MatchEvent{
			Kind:       NotifyMatchesGenerated,
			EventID:    in.EventID,
			CategoryID: in.CategoryID,
			Phase:      string(phase),
			MatchIDs:   matchIDs(result.Matches),
			PairingIDs: matchPairingIDs(result.Matches),
		})
	}

	return result, nil
}

// loadScope 카테고리 사용 가능 여부와 대회 설정 확인
func (s *GenerationService) loadScope(ctx context.Context, eventID string, categoryID *string) (*models.TournamentConfig, error) {
	directory := repository.NewDirectoryRepository(s.db)
	if err := checkCategory(ctx, directory, eventID, categoryID); err != nil {
		return nil, err
	}

	cfg, err := directory.FindTournamentConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &models.TournamentConfig{EventID: eventID}
	}
	return cfg, nil
}

func checkCategory(ctx context.Context, directory *repository.DirectoryRepository, eventID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	link, err := directory.FindEventCategory(ctx, eventID, *categoryID)
	if err != nil {
		return err
	}
	if link == nil || !link.Enabled {
		return Reason(CodeCategoryNotAvailable)
	}
	if link.Archived {
		return Reason(CodeTournamentConfigLocked)
	}
	return nil
}

func (s *GenerationService) acquireLock(ctx context.Context, eventID string, categoryID *string) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}

	lock, err := s.locks.Acquire(ctx, distributed.GenerationLockKey(eventID, categoryID), s.lockTTL)
	if errors.Is(err, distributed.ErrLockNotAcquired) {
		return nil, Reason(CodeGenerationInProgress)
	}
	if err != nil {
		// Redis 장애 시 락 없이 진행 (트랜잭션이 최종 보호)
		s.logger.Warn("Generation lock unavailable, continuing without it", zap.Error(err))
		return noop, nil
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, distributed.ErrLockNotHeld) {
			s.logger.Warn("Failed to release generation lock", zap.String("key", lock.Key()), zap.Error(err))
		}
	}, nil
}

func (s *GenerationService) dispatch(ev MatchEvent) {
	dispatchAsync(s.notifier, s.logger, ev)
}

// generation 트랜잭션 하나 안에서의 생성 작업
type generation struct {
	ctx     context.Context
	in      GenerateInput
	cfg     *models.TournamentConfig
	format  padel.Format
	phase   padel.Phase
	version string
	now     time.Time
	actor   string

	matches  *repository.MatchRepository
	pairings *repository.PairingRepository
	ko       *repository.KnockoutGenerationRepository
}

func (g *generation) run() (*GenerateResult, error) {
	switch g.format.Family() {
	case padel.FamilyRoundRobin:
		return g.roundRobin()
	case padel.FamilySingleElimination:
		return g.singleElimination()
	case padel.FamilyGroupsKnockout:
		if g.phase == padel.PhaseGroups {
			return g.groups()
		}
		return g.knockoutFromGroups()
	}
	return nil, Reason(CodeFormatNotSupported)
}

func (g *generation) filter(round models.RoundType) repository.MatchFilter {
	return repository.MatchFilter{EventID: g.in.EventID, CategoryID: g.in.CategoryID, RoundType: round}
}

// replaceUnplayed 기존 경기가 하나라도 진행됐으면 lockedCode, 아니면 모두 삭제
func (g *generation) replaceUnplayed(round models.RoundType, lockedCode string) (int, error) {
	existing, err := g.matches.List(g.ctx, g.filter(round))
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(existing))
	for i := range existing {
		if existing[i].IsPlayed() {
			return 0, Reason(lockedCode)
		}
		ids = append(ids, existing[i].ID)
	}
	if err := g.matches.DeleteByIDs(g.ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// entrants 확정 페어링을 시드 순서로. 시드 없는 팀은 추첨 순서.
func (g *generation) entrants() ([]string, error) {
	confirmed, err := g.pairings.ListConfirmed(g.ctx, g.in.EventID, g.in.CategoryID)
	if err != nil {
		return nil, err
	}
	if len(confirmed) < 2 {
		return nil, reasonWrap(CodeGenerationFailed, padel.ErrNotEnoughPairings)
	}

	var seeded []models.Pairing
	var unseeded []string
	for _, p := range confirmed {
		if p.SeedRank != nil {
			seeded = append(seeded, p)
		} else {
			unseeded = append(unseeded, p.ID)
		}
	}
	sort.SliceStable(seeded, func(i, j int) bool { return *seeded[i].SeedRank < *seeded[j].SeedRank })

	ids := make([]string, 0, len(confirmed))
	for _, p := range seeded {
		ids = append(ids, p.ID)
	}
	drawSeed := g.in.EventID
	if g.in.CategoryID != nil {
		drawSeed += ":" + *g.in.CategoryID
	}
	return append(ids, padel.DrawOrder(unseeded, drawSeed)...), nil
}

func (g *generation) newMatch(round models.RoundType) *models.Match {
	return &models.Match{
		EventID:           g.in.EventID,
		CategoryID:        g.in.CategoryID,
		RoundType:         round,
		Status:            models.MatchStatusScheduled,
		Score:             datatypes.NewJSONType(models.MatchScore{}),
		GenerationVersion: g.version,
	}
}

func (g *generation) fixtures(label string, ids []string) []*models.Match {
	var out []*models.Match
	for _, f := range padel.RoundRobin(ids) {
		a, b := f.A, f.B
		group := label
		m := g.newMatch(models.RoundGroups)
		m.GroupLabel = &group
		m.RoundNumber = f.Round
		m.RoundLabel = fmt.Sprintf("J%d", f.Round)
		m.PairingAID = &a
		m.PairingBID = &b
		out = append(out, m)
	}
	return out
}

func (g *generation) schedule(matches []*models.Match) error {
	padel.AssignCourts(matches, padel.ScheduleOptions{
		Courts:       padel.ResolveCourts(g.cfg),
		StartAt:      g.cfg.ScheduleStartAt,
		MatchMinutes: g.cfg.MatchMinutes,
	})
	return g.matches.CreateBatch(g.ctx, matches)
}

func (g *generation) roundRobin() (*GenerateResult, error) {
	replaced, err := g.replaceUnplayed(models.RoundGroups, CodeScheduleHasResults)
	if err != nil {
		return nil, err
	}
	ids, err := g.entrants()
	if err != nil {
		return nil, err
	}

	matches := g.fixtures(g.format.DefaultGroupLabel(), ids)
	sortByRound(matches)
	if err := g.schedule(matches); err != nil {
		return nil, err
	}
	return g.result(matches, replaced, nil), nil
}

func (g *generation) groups() (*GenerateResult, error) {
	existing, err := g.matches.List(g.ctx, g.filter(models.RoundGroups))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, Reason(CodeGroupsAlreadyGenerated)
	}

	ids, err := g.entrants()
	if err != nil {
		return nil, err
	}
	layout, err := padel.ResolveGroupLayout(len(ids), g.cfg.GroupsConfig.Data())
	if err != nil {
		return nil, fromEngine(err)
	}

	var matches []*models.Match
	for i, members := range padel.DistributeIntoGroups(ids, layout.GroupCount, layout.Snake) {
		matches = append(matches, g.fixtures(padel.GroupLabel(i), members)...)
	}
	if len(matches) == 0 {
		return nil, Reason(CodeGenerationFailed)
	}
	sortByRound(matches)
	if err := g.schedule(matches); err != nil {
		return nil, err
	}
	return g.result(matches, 0, nil), nil
}

func (g *generation) singleElimination() (*GenerateResult, error) {
	replaced, err := g.replaceUnplayed(models.RoundKnockout, CodeScheduleHasResults)
	if err != nil {
		return nil, err
	}
	ids, err := g.entrants()
	if err != nil {
		return nil, err
	}

	seeds := make([]models.KnockoutSeed, len(ids))
	for i, id := range ids {
		seeds[i] = models.KnockoutSeed{Seed: i + 1, PairingID: id}
	}
	return g.bracket(seeds, replaced)
}

func (g *generation) knockoutFromGroups() (*GenerateResult, error) {
	groupMatches, err := g.matches.List(g.ctx, g.filter(models.RoundGroups))
	if err != nil {
		return nil, err
	}
	if len(groupMatches) == 0 {
		return nil, Reason(CodeGroupsNotGenerated)
	}
	if !g.in.AllowIncomplete {
		for i := range groupMatches {
			switch groupMatches[i].Status {
			case models.MatchStatusCompleted, models.MatchStatusCancelled:
			default:
				return nil, Reason(CodeGroupsNotFinished)
			}
		}
	}

	replaced, err := g.replaceUnplayed(models.RoundKnockout, CodeKnockoutLocked)
	if err != nil {
		return nil, err
	}

	standings := padel.ComputeStandings(groupMatches, g.cfg.PointsTable.Data(), g.cfg.TieBreakRules.Data())
	labels := make([]string, 0, len(standings))
	entrants := 0
	for label, rows := range standings {
		labels = append(labels, label)
		entrants += len(rows)
	}
	sort.Strings(labels)

	layout, err := padel.ResolveGroupLayout(entrants, g.cfg.GroupsConfig.Data())
	if err != nil {
		return nil, fromEngine(err)
	}

	seeds := padel.SeedQualifiers(padel.SelectQualifiers(standings, labels, layout.QualifyPerGroup, layout.ExtraQualifiers))
	return g.bracket(seeds, replaced)
}

// bracket 대진표를 경기로 만들고 다음 경기 연결, 시드 스냅샷 저장
func (g *generation) bracket(seeds []models.KnockoutSeed, replaced int) (*GenerateResult, error) {
	b, err := padel.BuildBracket(seeds)
	if err != nil {
		return nil, fromEngine(err)
	}

	matches := make([]*models.Match, len(b.Matches))
	for i, bm := range b.Matches {
		m := g.newMatch(models.RoundKnockout)
		m.RoundNumber = bm.Round
		m.RoundLabel = bm.Label
		m.BracketPosition = bm.Position
		m.PairingAID = bm.A
		m.PairingBID = bm.B
		if bm.Bye {
			side := models.SideA
			if bm.A == nil {
				side = models.SideB
			}
			completedAt := g.now
			m.Status = models.MatchStatusCompleted
			m.Score = datatypes.NewJSONType(models.MatchScore{ResultType: models.ResultBye, WinnerSide: side})
			m.WinnerPairingID = bm.ByeWinner
			m.CompletedAt = &completedAt
		}
		matches[i] = m
	}

	if err := g.schedule(matches); err != nil {
		return nil, err
	}
	for i, bm := range b.Matches {
		if bm.Next < 0 {
			continue
		}
		next := matches[bm.Next]
		slot := bm.NextSlot
		matches[i].NextMatchID = &next.ID
		matches[i].NextSlot = &slot
		if err := g.matches.LinkNext(g.ctx, matches[i].ID, next.ID, slot); err != nil {
			return nil, err
		}
	}

	if err := g.ko.Create(g.ctx, &models.KnockoutGeneration{
		EventID:           g.in.EventID,
		CategoryID:        g.in.CategoryID,
		GenerationVersion: g.version,
		SeedSnapshot:      datatypes.NewJSONType(seeds),
		Override:          g.in.AllowIncomplete,
		GeneratedBy:       g.actor,
		CreatedAt:         g.now,
	}); err != nil {
		return nil, err
	}

	return g.result(matches, replaced, seeds), nil
}

func (g *generation) result(matches []*models.Match, replaced int, seeds []models.KnockoutSeed) *GenerateResult {
	out := make([]models.Match, len(matches))
	for i, m := range matches {
		out[i] = *m
	}
	return &GenerateResult{
		Format:            g.format,
		Phase:             g.phase,
		GenerationVersion: g.version,
		Matches:           out,
		Replaced:          replaced,
		Seeds:             seeds,
	}
}

// sortByRound 라운드 순으로 코트 배정되도록 정렬 (같은 라운드는 조 순서 유지)
func sortByRound(matches []*models.Match) {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].RoundNumber < matches[j].RoundNumber })
}

func matchIDs(matches []models.Match) []string {
	ids := make([]string, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
	}
	return ids
}

func matchPairingIDs(matches []models.Match) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range matches {
		for _, id := range []*string{matches[i].PairingAID, matches[i].PairingBID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	return ids
}
