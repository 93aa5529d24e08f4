package service

import (
	"context"

	"github.com/padel-arena/padel-arena-backend/internal/models"
	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/internal/repository"
	"github.com/padel-arena/padel-arena-backend/pkg/database"
	"go.uber.org/zap"
)

const reconcileBatchSize = 500

// IntegrityService 페어링/등록 상태 불일치 점검. 결과는 보고만 하고 막지 않는다.
type IntegrityService struct {
	db     *database.DB
	authz  *Authorizer
	logger *zap.Logger
}

func NewIntegrityService(db *database.DB, authz *Authorizer, logger *zap.Logger) *IntegrityService {
	return &IntegrityService{db: db, authz: authz, logger: logger}
}

// EvaluateEvent 한 이벤트의 모든 페어링 점검
func (s *IntegrityService) EvaluateEvent(ctx context.Context, actorUserID, eventID string) (*padel.IntegritySummary, error) {
	if eventID == "" {
		return nil, Reason(CodeInvalidInput)
	}
	if _, err := s.authz.RequireTournamentEditor(ctx, actorUserID, eventID); err != nil {
		return nil, err
	}

	pairings, err := repository.NewPairingRepository(s.db).ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summary := padel.SummarizeIntegrity(pairings)
	s.report("event", summary, zap.String("eventId", eventID))
	return &summary, nil
}

// Reconcile 전체 페어링을 배치로 훑어 집계 (cron 작업용)
func (s *IntegrityService) Reconcile(ctx context.Context) (*padel.IntegritySummary, error) {
	total := padel.IntegritySummary{
		ByReason: make(map[padel.IntegrityReason]int),
		Issues:   []padel.IntegrityIssue{},
	}
	scanned := 0

	err := repository.NewPairingRepository(s.db).EachBatch(ctx, reconcileBatchSize, func(batch []models.Pairing) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		scanned += len(batch)
		mergeSummary(&total, padel.SummarizeIntegrity(batch))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.report("reconcile", total, zap.Int("scanned", scanned))
	return &total, nil
}

func (s *IntegrityService) report(scope string, summary padel.IntegritySummary, fields ...zap.Field) {
	fields = append(fields,
		zap.String("scope", scope),
		zap.Int("issues", summary.Total),
		zap.Int("affectedPairings", summary.AffectedPairings))
	if summary.Total == 0 {
		s.logger.Debug("Integrity check clean", fields...)
		return
	}

	for reason, n := range summary.ByReason {
		fields = append(fields, zap.Int(string(reason), n))
	}
	s.logger.Warn("Pairing integrity anomalies detected", fields...)
}

func mergeSummary(dst *padel.IntegritySummary, src padel.IntegritySummary) {
	dst.Total += src.Total
	dst.AffectedPairings += src.AffectedPairings
	for reason, n := range src.ByReason {
		dst.ByReason[reason] += n
	}
	dst.Issues = append(dst.Issues, src.Issues...)
}
