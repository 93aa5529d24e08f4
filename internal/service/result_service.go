package service

import (
	"context"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// UndoOutcome 결과 취소 후 상태
type UndoOutcome struct {
	Match        models.Match `json:"match"`
	SourceLogID  string       `json:"sourceLogId"`
	SlotReverted bool         `json:"slotReverted"`
}

type ResultService struct {
	db         *database.DB
	authz      *Authorizer
	notifier   Notifier
	undoWindow time.Duration
	scanLimit  int
	logger     *zap.Logger
	now        func() time.Time
}

func NewResultService(
	db *database.DB,
	authz *Authorizer,
	notifier Notifier,
	undoWindow time.Duration,
	scanLimit int,
	logger *zap.Logger,
) *ResultService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ResultService{
		db:         db,
		authz:      authz,
		notifier:   notifier,
		undoWindow: undoWindow,
		scanLimit:  scanLimit,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// authorize 경기 조회 후 운영자 권한과 카테고리 상태 확인
func (s *ResultService) authorize(ctx context.Context, actorUserID, matchID string) (*models.Match, *Access, error) {
	if matchID == "" {
		return nil, nil, Reason(CodeInvalidInput)
	}
	match, err := repository.NewMatchRepository(s.db).FindByID(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if match == nil {
		return nil, nil, Reason(CodeMatchNotFound)
	}

	access, err := s.authz.RequireOperator(ctx, actorUserID, match.EventID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkCategory(ctx, repository.NewDirectoryRepository(s.db), match.EventID, match.CategoryID); err != nil {
		return nil, nil, err
	}
	return match, access, nil
}

// SubmitResult 경기 결과 입력. 승자는 다음 경기 슬롯으로 진출한다.
func (s *ResultService) SubmitResult(ctx context.Context, actorUserID, matchID string, score models.MatchScore) (*models.Match, error) {
	match, access, err := s.authorize(ctx, actorUserID, matchID)
	if err != nil {
		return nil, err
	}

	cfg, err := repository.NewDirectoryRepository(s.db).FindTournamentConfig(ctx, match.EventID)
	if err != nil {
		return nil, err
	}
	var configured *models.ScoreRules
	if cfg != nil {
		configured = cfg.ScoreRules.Data()
	}
	rules := padel.NormalizeScoreRules(configured)

	now := s.now()
	var saved models.Match
	err = s.db.Transaction(ctx, func(tx *database.DB) error {
		matches := repository.NewMatchRepository(tx)

		m, err := matches.FindByIDForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if m == nil {
			return Reason(CodeMatchNotFound)
		}
		if m.PairingAID == nil || m.PairingBID == nil || m.Status == models.MatchStatusCancelled {
			return Reason(CodeMatchNotReady)
		}

		stats, err := padel.ResolveMatchStats(score, &rules)
		if err != nil {
			return fromEngine(err)
		}
		if stats.IsDraw && m.RoundType == models.RoundKnockout {
			return reasonWrap(CodeInvalidScore, padel.ErrInvalidScore)
		}

		var next *models.Match
		if m.NextMatchID != nil && m.NextSlot != nil {
			if next, err = matches.FindByIDForUpdate(ctx, *m.NextMatchID); err != nil {
				return err
			}
			if next != nil && next.IsPlayed() {
				return Reason(CodeDownstreamLocked)
			}
		}

		before := snapshot(m)

		recorded := score
		recorded.ResultType = stats.ResultType
		recorded.WinnerSide = stats.Winner
		m.Status = models.MatchStatusCompleted
		m.Score = datatypes.NewJSONType(recorded)
		m.WinnerPairingID = padel.WinnerPairing(stats.Winner, m.PairingAID, m.PairingBID)
		m.CompletedAt = &now
		if err := matches.Save(ctx, m); err != nil {
			return err
		}

		after := snapshot(m)
		if next != nil {
			slot := *m.NextSlot
			after.Propagation = &models.SlotPropagation{
				NextMatchID: next.ID,
				NextSlot:    slot,
				Before:      next.SlotValue(slot),
				After:       m.WinnerPairingID,
			}
			if err := matches.SetSlot(ctx, next.ID, slot, m.WinnerPairingID); err != nil {
				return err
			}
		}

		if err := repository.NewAuditLogRepository(tx).Create(ctx, &models.AuditLog{
			OrganizationID: access.Organization.ID,
			TournamentID:   m.EventID,
			MatchID:        &m.ID,
			Action:         models.AuditEditMatchResult,
			ActorUserID:    actorUserID,
			PayloadBefore:  datatypes.NewJSONType(before),
			PayloadAfter:   datatypes.NewJSONType(after),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		saved = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Match result recorded",
		zap.String("matchId", saved.ID),
		zap.String("eventId", saved.EventID),
		zap.Stringp("winnerPairingId", saved.WinnerPairingID),
		zap.String("actor", actorUserID))

	s.dispatch(MatchEvent{
		Kind:       NotifyMatchResult,
		EventID:    saved.EventID,
		CategoryID: saved.CategoryID,
		Phase:      string(saved.RoundType),
		MatchIDs:   []string{saved.ID},
		PairingIDs: matchPairingIDs([]models.Match{saved}),
		Payload:    saved,
	})
	return &saved, nil
}

// UndoResult 마지막 결과 입력을 되돌린다. 입력 후 undoWindow 안에서만 가능.
func (s *ResultService) UndoResult(ctx context.Context, actorUserID, matchID string) (*UndoOutcome, error) {
	match, access, err := s.authorize(ctx, actorUserID, matchID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var outcome UndoOutcome
	err = s.db.Transaction(ctx, func(tx *database.DB) error {
		audit := repository.NewAuditLogRepository(tx)
		matches := repository.NewMatchRepository(tx)

		recent, err := audit.Recent(ctx, match.EventID,
			[]models.AuditAction{models.AuditEditMatchResult, models.AuditUndoMatchResult}, s.scanLimit)
		if err != nil {
			return err
		}

		// 이 경기의 가장 최근 기록이 결과 입력이어야 한다 (취소의 취소는 없음)
		var target *models.AuditLog
		for i := range recent {
			if recent[i].MatchID == nil || *recent[i].MatchID != matchID {
				continue
			}
			if recent[i].Action == models.AuditEditMatchResult {
				target = &recent[i]
			}
			break
		}
		if target == nil {
			return Reason(CodeUndoNotFound)
		}
		undone, err := audit.FindUndoOf(ctx, target.ID)
		if err != nil {
			return err
		}
		if undone != nil {
			return Reason(CodeUndoNotFound)
		}
		if now.Sub(target.CreatedAt) > s.undoWindow {
			return Reason(CodeUndoExpired)
		}

		m, err := matches.FindByIDForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if m == nil {
			return Reason(CodeMatchNotFound)
		}

		current := snapshot(m)
		restored := target.PayloadBefore.Data()
		edited := target.PayloadAfter.Data()

		var undoProp *models.SlotPropagation
		if p := edited.Propagation; p != nil {
			next, err := matches.FindByIDForUpdate(ctx, p.NextMatchID)
			if err != nil {
				return err
			}
			if next != nil {
				// 그 사이 다른 변경이 있었으면 슬롯은 건드리지 않는다.
				// 승자가 아직 그 슬롯에 있고 다음 경기가 진행됐다면 되돌릴 수 없다.
				if sameID(next.SlotValue(p.NextSlot), p.After) {
					if next.IsPlayed() {
						return Reason(CodeDownstreamLocked)
					}
					if err := matches.SetSlot(ctx, next.ID, p.NextSlot, p.Before); err != nil {
						return err
					}
					outcome.SlotReverted = true
					undoProp = &models.SlotPropagation{
						NextMatchID: next.ID,
						NextSlot:    p.NextSlot,
						Before:      p.After,
						After:       p.Before,
					}
				} else {
					s.logger.Info("Successor slot changed since edit, leaving it",
						zap.String("matchId", matchID),
						zap.String("nextMatchId", next.ID))
				}
			}
		}

		m.Status = restored.Status
		if m.Status == "" {
			m.Status = models.MatchStatusScheduled
		}
		score := models.MatchScore{}
		if restored.Score != nil {
			score = *restored.Score
		}
		m.Score = datatypes.NewJSONType(score)
		m.WinnerPairingID = restored.WinnerPairingID
		m.CompletedAt = restored.CompletedAt
		if err := matches.Save(ctx, m); err != nil {
			return err
		}

		after := snapshot(m)
		after.Propagation = undoProp
		if err := audit.Create(ctx, &models.AuditLog{
			OrganizationID: access.Organization.ID,
			TournamentID:   m.EventID,
			MatchID:        &m.ID,
			Action:         models.AuditUndoMatchResult,
			ActorUserID:    actorUserID,
			PayloadBefore:  datatypes.NewJSONType(current),
			PayloadAfter:   datatypes.NewJSONType(after),
			SourceLogID:    &target.ID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		outcome.Match = *m
		outcome.SourceLogID = target.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Match result undone",
		zap.String("matchId", matchID),
		zap.String("sourceLogId", outcome.SourceLogID),
		zap.Bool("slotReverted", outcome.SlotReverted),
		zap.String("actor", actorUserID))

	s.dispatch(MatchEvent{
		Kind:       NotifyMatchUndo,
		EventID:    outcome.Match.EventID,
		CategoryID: outcome.Match.CategoryID,
		Phase:      string(outcome.Match.RoundType),
		MatchIDs:   []string{matchID},
		Payload:    outcome,
	})
	return &outcome, nil
}

func (s *ResultService) dispatch(ev MatchEvent) {
	dispatchAsync(s.notifier, s.logger, ev)
}

func snapshot(m *models.Match) models.AuditPayload {
	score := m.Score.Data()
	return models.AuditPayload{
		Status:          m.Status,
		Score:           &score,
		WinnerPairingID: m.WinnerPairingID,
		CompletedAt:     m.CompletedAt,
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
