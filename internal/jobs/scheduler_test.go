package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/padel-arena/padel-arena-backend/internal/padel"
	"github.com/padel-arena/padel-arena-backend/pkg/distributed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReconciler struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReconciler) Reconcile(context.Context) (*padel.IntegritySummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &padel.IntegritySummary{Total: 1, AffectedPairings: 1}, nil
}

func TestScheduler_RunNow(t *testing.T) {
	integrity := &fakeReconciler{}
	queue := newFakeQueue(&distributed.Notification{ID: "n1", MaxRetries: 3})
	deliverer := &fakeDeliverer{}
	s := NewScheduler(integrity, queue, deliverer, "@every 1h", zap.NewNop())

	s.RunNow()

	assert.EqualValues(t, 1, integrity.calls.Load())
	assert.EqualValues(t, 1, queue.recoverCalls.Load())
	assert.Equal(t, queueStaleAfter, queue.staleWith)
	assert.Equal(t, []string{"n1"}, deliverer.delivered)
	assert.Equal(t, []string{"n1"}, queue.completed)
}

func TestScheduler_RunNowWithoutQueue(t *testing.T) {
	integrity := &fakeReconciler{err: errors.New("db down")}
	s := NewScheduler(integrity, nil, &fakeDeliverer{}, "@every 1h", zap.NewNop())

	assert.NotPanics(t, s.RunNow)
	assert.EqualValues(t, 1, integrity.calls.Load())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&fakeReconciler{}, nil, nil, "every now and then", zap.NewNop())
	assert.Error(t, s.Start())
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	integrity := &fakeReconciler{}
	s := NewScheduler(integrity, nil, nil, "@every 1s", zap.NewNop())
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return integrity.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
