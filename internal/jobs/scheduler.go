// Package jobs 주기적으로 실행되는 백그라운드 작업
package jobs

import (
	"context"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	jobTimeout       = 2 * time.Minute
	queueRecoverSpec = "@every 1m"
	queueStaleAfter  = 5 * time.Minute
	dispatchSpec     = "@every 5s"
)

// Reconciler 전체 이벤트 정합성 점검
type Reconciler interface {
	Reconcile(ctx context.Context) (*padel.IntegritySummary, error)
}

type Scheduler struct {
	cron          *cron.Cron
	integrity     Reconciler
	queue         NotificationQueue // nil이면 알림 작업 없음
	dispatcher    *Dispatcher
	integritySpec string
	logger        *zap.Logger
}

func NewScheduler(integrity Reconciler, queue NotificationQueue, deliverer Deliverer, integritySpec string, logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron:          c,
		integrity:     integrity,
		queue:         queue,
		integritySpec: integritySpec,
		logger:        logger,
	}
	if queue != nil && deliverer != nil {
		s.dispatcher = NewDispatcher(queue, deliverer, logger.Named("dispatch"))
	}
	return s
}

// Start 작업 등록 후 스케줄러 시작
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.integritySpec, s.runIntegrity); err != nil {
		s.logger.Error("Failed to schedule integrity job", zap.String("spec", s.integritySpec), zap.Error(err))
		return err
	}
	if s.queue != nil {
		if _, err := s.cron.AddFunc(queueRecoverSpec, s.runQueueRecovery); err != nil {
			return err
		}
	}
	if s.dispatcher != nil {
		if _, err := s.cron.AddFunc(dispatchSpec, s.runDispatch); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started",
		zap.String("integrity", s.integritySpec),
		zap.Bool("queueRecovery", s.queue != nil),
		zap.Bool("dispatch", s.dispatcher != nil))
	return nil
}

// Stop 실행 중인 작업이 끝날 때까지 기다린다 (ctx 만료 시 포기)
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Cron scheduler stop timed out")
	}
}

// RunNow 모든 작업을 즉시 한 번 실행
func (s *Scheduler) RunNow() {
	s.runIntegrity()
	if s.queue != nil {
		s.runQueueRecovery()
	}
	if s.dispatcher != nil {
		s.runDispatch()
	}
}

func (s *Scheduler) runIntegrity() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	summary, err := s.integrity.Reconcile(ctx)
	if err != nil {
		s.logger.Error("Integrity reconciliation failed", zap.Error(err))
		return
	}
	s.logger.Info("Integrity reconciliation completed",
		zap.Int("anomalies", summary.Total),
		zap.Int("affectedPairings", summary.AffectedPairings),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) runQueueRecovery() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.queue.RecoverStale(ctx, queueStaleAfter)
	if err != nil {
		s.logger.Warn("Notification queue recovery failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Recovered stale notifications", zap.Int("count", n))
	}
}

func (s *Scheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	stats, err := s.dispatcher.Drain(ctx)
	if err != nil {
		s.logger.Warn("Notification dispatch interrupted", zap.Error(err))
	}
	if stats.Delivered > 0 || stats.Retried > 0 {
		s.logger.Info("Dispatched notifications",
			zap.Int("delivered", stats.Delivered),
			zap.Int("retried", stats.Retried))
	}
}

// cronLogger cron.Logger를 zap으로 연결
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
