package scheduler

import (
	"context"
	"errors"
	"roster-sync/internal/domain"
	"roster-sync/internal/service"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSweeper struct {
	runs     atomic.Int32
	triggers chan domain.SyncLogType
	err      error
}

func (f *fakeSweeper) RunAll(ctx context.Context, trigger domain.SyncLogType) ([]service.Result, error) {
	f.runs.Add(1)
	select {
	case f.triggers <- trigger:
	default:
	}
	return []service.Result{{MemberID: "a", OK: true}, {MemberID: "b"}}, f.err
}

func TestScheduler_SweepsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &fakeSweeper{triggers: make(chan domain.SyncLogType, 1)}
	s := New(sweeper, 10*time.Millisecond, zerolog.Nop())

	s.Start(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case trigger := <-sweeper.triggers:
			assert.Equal(t, domain.SyncLogCron, trigger)
		case <-time.After(2 * time.Second):
			t.Fatal("sweep did not run")
		}
	}

	s.Stop()
	runs := sweeper.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, sweeper.runs.Load())
}

func TestScheduler_SweepErrorKeepsLooping(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &fakeSweeper{triggers: make(chan domain.SyncLogType, 1), err: errors.New("database is locked")}
	s := New(sweeper, 5*time.Millisecond, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return sweeper.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_Disabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &fakeSweeper{triggers: make(chan domain.SyncLogType, 1)}
	s := New(sweeper, 0, zerolog.Nop())

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Zero(t, sweeper.runs.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(&fakeSweeper{}, time.Second, zerolog.Nop())
	assert.NotPanics(t, s.Stop)
}
