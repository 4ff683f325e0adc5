package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/downtime/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// passFunc runs one full scan pass.
type passFunc func(ctx context.Context, trigger models.ScanTrigger) (models.ScanSummary, error)

const scanFlightKey = "scan"

// Scheduler decides when scan passes run. At most one pass is in flight; triggers that
// arrive meanwhile collapse into a single queued follow-up pass.
type Scheduler struct {
	logger        zerolog.Logger
	interval      time.Duration
	scanOnStartup bool
	runPass       passFunc

	triggers chan models.ScanTrigger
	group    singleflight.Group
	passes   sync.WaitGroup

	mu      sync.Mutex
	active  bool
	loopCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	// haltCtx is cancelled by Stop and ends passes started outside the loop.
	haltCtx context.Context
	halt    context.CancelFunc
}

// NewScheduler creates a scheduler that calls runPass every interval.
func NewScheduler(interval time.Duration, scanOnStartup bool, runPass passFunc, logger zerolog.Logger) *Scheduler {
	haltCtx, halt := context.WithCancel(context.Background())
	return &Scheduler{
		logger:        logger.With().Str("component", "MonitorScheduler").Logger(),
		interval:      interval,
		scanOnStartup: scanOnStartup,
		runPass:       runPass,
		triggers:      make(chan models.ScanTrigger, 1),
		haltCtx:       haltCtx,
		halt:          halt,
	}
}

// Start launches the scheduler loop. It returns immediately; the loop stops when
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.logger.Warn().Msg("MonitorScheduler already active.")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.active = true
	s.loopCtx = loopCtx
	s.cancel = cancel
	s.done = make(chan struct{})

	if s.scanOnStartup {
		s.Trigger(models.TriggerStartup)
	}

	s.logger.Info().Dur("interval", s.interval).Msg("Starting MonitorScheduler")
	go s.loop(loopCtx, s.done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		s.mu.Lock()
		s.active = false
		s.loopCtx = nil
		s.mu.Unlock()
		close(done)
		s.logger.Info().Msg("MonitorScheduler main loop stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, models.TriggerInterval)
		case trigger := <-s.triggers:
			s.execute(ctx, trigger)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, trigger models.ScanTrigger) {
	summary, err := s.ScanNow(ctx, trigger)
	if err != nil {
		s.logger.Warn().Err(err).Str("trigger", string(trigger)).Msg("Scan pass did not complete")
		return
	}
	s.logger.Debug().Str("scan_session_id", summary.ScanSessionID).Msg("Scheduled scan pass finished")
}

// Trigger requests a pass without waiting for it. If a request is already queued
// the new one is merged into it.
func (s *Scheduler) Trigger(trigger models.ScanTrigger) {
	select {
	case s.triggers <- trigger:
		s.logger.Debug().Str("trigger", string(trigger)).Msg("Scan pass queued")
	default:
		s.logger.Debug().Str("trigger", string(trigger)).Msg("Scan pass already queued, coalesced")
	}
}

// ScanNow runs a pass and waits for it. A caller arriving while a pass is running
// joins that pass and receives its summary. Cancelling ctx only abandons this
// caller's wait; the pass itself ends when it finishes, the loop stops or Stop is called.
func (s *Scheduler) ScanNow(ctx context.Context, trigger models.ScanTrigger) (models.ScanSummary, error) {
	ch := s.group.DoChan(scanFlightKey, func() (any, error) {
		s.passes.Add(1)
		defer s.passes.Done()
		passCtx, release := s.passContext(ctx)
		defer release()
		return s.runPass(passCtx, trigger)
	})

	select {
	case <-ctx.Done():
		return models.ScanSummary{}, ctx.Err()
	case res := <-ch:
		summary, _ := res.Val.(models.ScanSummary)
		if res.Shared {
			s.logger.Debug().Str("trigger", string(trigger)).Msg("Joined in-flight scan pass")
		}
		return summary, res.Err
	}
}

// passContext keeps the values of ctx but not its cancellation. The returned context
// is cancelled when the scheduler loop stops or Stop is called.
func (s *Scheduler) passContext(ctx context.Context) (context.Context, context.CancelFunc) {
	passCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	loopCtx, haltCtx := s.loopCtx, s.haltCtx
	s.mu.Unlock()

	stopOnHalt := context.AfterFunc(haltCtx, cancel)
	stopOnLoop := func() bool { return false }
	if loopCtx != nil {
		stopOnLoop = context.AfterFunc(loopCtx, cancel)
	}
	return passCtx, func() {
		stopOnHalt()
		stopOnLoop()
		cancel()
	}
}

// IsActive reports whether the loop is running.
func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Stop cancels the loop and any running pass, and waits until no pass is running.
// ScanNow may be used again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	wasActive := s.active
	halt := s.halt
	s.haltCtx, s.halt = context.WithCancel(context.Background())
	s.mu.Unlock()

	halt()

	if wasActive {
		s.logger.Info().Msg("Stopping MonitorScheduler...")
		cancel()
		<-done
	}
	s.passes.Wait()
}
