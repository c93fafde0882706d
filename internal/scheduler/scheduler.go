package scheduler

import (
	"context"
	"roster-sync/internal/config"
	"roster-sync/internal/domain"
	"roster-sync/internal/service"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Sweeper syncs every stale member, page by page.
type Sweeper interface {
	RunAll(ctx context.Context, trigger domain.SyncLogType) ([]service.Result, error)
}

// Scheduler runs a cron-triggered sweep every interval. A zero interval
// disables it.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(sweeper Sweeper, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

func NewFromConfig(batch *service.BatchCoordinator, cfg *config.Config, logger zerolog.Logger) *Scheduler {
	return New(batch, cfg.Sync.ScheduleInterval, logger)
}

// Start launches the sweep loop in the background and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info().Msg("scheduled sync disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info().Dur("interval", s.interval).Msg("scheduled sync started")
	go s.loop(loopCtx, s.done)
}

// Stop cancels the loop and waits for the running sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info().Msg("scheduled sync stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	start := time.Now()
	results, err := s.sweeper.RunAll(ctx, domain.SyncLogCron)

	failed := 0
	for _, r := range results {
		if !r.OK && !r.Skipped {
			failed++
		}
	}

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.
		Int("members", len(results)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("scheduled sync sweep finished")
}

func Register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
	fx.Invoke(Register),
)
