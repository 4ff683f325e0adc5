package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedPass struct {
	gate    chan struct{}
	started chan models.ScanTrigger
	runs    atomic.Int64
	active  atomic.Int64
	overlap atomic.Bool
}

func newGatedPass() *gatedPass {
	return &gatedPass{gate: make(chan struct{}), started: make(chan models.ScanTrigger, 16)}
}

func (g *gatedPass) run(ctx context.Context, trigger models.ScanTrigger) (models.ScanSummary, error) {
	if g.active.Add(1) > 1 {
		g.overlap.Store(true)
	}
	defer g.active.Add(-1)
	n := g.runs.Add(1)
	g.started <- trigger
	select {
	case <-g.gate:
	case <-ctx.Done():
		return models.ScanSummary{}, ctx.Err()
	}
	return models.ScanSummary{ScanSessionID: string(rune('0' + n)), Trigger: trigger}, nil
}

func TestScheduler_StartupPassAndCoalescedTriggers(t *testing.T) {
	pass := newGatedPass()
	s := NewScheduler(time.Hour, true, pass.run, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, models.TriggerStartup, <-pass.started)

	for i := 0; i < 5; i++ {
		s.Trigger(models.TriggerAdd)
	}
	close(pass.gate)

	assert.Equal(t, models.TriggerAdd, <-pass.started)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(2), pass.runs.Load())
	assert.False(t, pass.overlap.Load())
}

func TestScheduler_IntervalTicks(t *testing.T) {
	pass := newGatedPass()
	close(pass.gate)
	s := NewScheduler(30*time.Millisecond, false, pass.run, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, models.TriggerInterval, <-pass.started)
	assert.Eventually(t, func() bool { return pass.runs.Load() >= 2 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_ScanNowJoinsInFlightPass(t *testing.T) {
	pass := newGatedPass()
	s := NewScheduler(time.Hour, false, pass.run, zerolog.Nop())

	var wg sync.WaitGroup
	results := make([]models.ScanSummary, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summary, err := s.ScanNow(context.Background(), models.TriggerManual)
			assert.NoError(t, err)
			results[i] = summary
		}(i)
	}

	<-pass.started
	time.Sleep(50 * time.Millisecond)
	close(pass.gate)
	wg.Wait()

	assert.Equal(t, int64(1), pass.runs.Load())
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[1], results[2])
}

func TestScheduler_StopCancelsRunningPass(t *testing.T) {
	pass := newGatedPass()
	s := NewScheduler(time.Hour, true, pass.run, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	<-pass.started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, s.IsActive())
}

func TestScheduler_StartTwiceIsNoop(t *testing.T) {
	pass := newGatedPass()
	close(pass.gate)
	s := NewScheduler(time.Hour, false, pass.run, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsActive())
	s.Stop()
	s.Stop()
}

func TestScheduler_CallerCancelDoesNotAbortSharedPass(t *testing.T) {
	pass := newGatedPass()
	s := NewScheduler(time.Hour, false, pass.run, zerolog.Nop())

	shortCtx, cancelShort := context.WithCancel(context.Background())
	shortErr := make(chan error, 1)
	go func() {
		_, err := s.ScanNow(shortCtx, models.TriggerManual)
		shortErr <- err
	}()
	<-pass.started

	type outcome struct {
		summary models.ScanSummary
		err     error
	}
	joined := make(chan outcome, 1)
	go func() {
		summary, err := s.ScanNow(context.Background(), models.TriggerInterval)
		joined <- outcome{summary, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelShort()
	assert.ErrorIs(t, <-shortErr, context.Canceled)

	close(pass.gate)
	got := <-joined
	require.NoError(t, got.err)
	assert.Equal(t, models.TriggerManual, got.summary.Trigger)
	assert.Equal(t, int64(1), pass.runs.Load())
}

func TestScheduler_StopCancelsManualPass(t *testing.T) {
	pass := newGatedPass()
	s := NewScheduler(time.Hour, false, pass.run, zerolog.Nop())

	errs := make(chan error, 1)
	go func() {
		_, err := s.ScanNow(context.Background(), models.TriggerManual)
		errs <- err
	}()
	<-pass.started

	s.Stop()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("manual pass was not cancelled by Stop")
	}
}
