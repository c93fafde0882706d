package service

import (
	"context"
	"roster-sync/internal/config"
	"roster-sync/internal/domain"
	"roster-sync/internal/metrics"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// SyncService is the entry point for member syncs from every trigger. It
// applies the trigger's cooldown, records the audit entry and metrics, and
// collapses concurrent in-process requests for the same member.
type SyncService struct {
	engine       *Engine
	orchestrator *Orchestrator
	logs         SyncLogStore
	cfg          config.SyncConfig
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	group singleflight.Group
	now   func() time.Time
}

func NewSyncService(engine *Engine, orchestrator *Orchestrator, logs SyncLogStore, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *SyncService {
	return &SyncService{
		engine:       engine,
		orchestrator: orchestrator,
		logs:         logs,
		cfg:          cfg.Sync,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *SyncService) SyncMember(ctx context.Context, memberID string, trigger domain.SyncLogType) Result {
	v, _, shared := s.group.Do(memberID, func() (any, error) {
		return s.syncMember(ctx, memberID, trigger), nil
	})
	if shared {
		s.logger.Debug().Str("member_id", memberID).Msg("joined in-flight sync")
	}
	return v.(Result)
}

func (s *SyncService) syncMember(ctx context.Context, memberID string, trigger domain.SyncLogType) Result {
	cooldown := s.cooldownFor(trigger)

	s.logger.Info().
		Str("member_id", memberID).
		Str("trigger", string(trigger)).
		Msg("sync started")

	res := s.engine.Run(ctx, memberID, func(ctx context.Context) error {
		return s.orchestrator.Pass(ctx, memberID, cooldown)
	})

	status := domain.SyncLogSuccess
	outcome := "success"
	switch {
	case res.Skipped:
		status, outcome = domain.SyncLogSkipped, "skipped"
	case !res.OK:
		status, outcome = domain.SyncLogError, "failed"
	}

	duration := res.DurationMs
	entry := domain.SyncLogEntry{
		Type:       trigger,
		MemberID:   memberID,
		Status:     status,
		DurationMs: &duration,
		CreatedAt:  s.now(),
	}
	if res.Error != "" {
		msg := res.Error
		entry.Message = &msg
	}
	s.logs.Write(context.WithoutCancel(ctx), entry)

	if s.metrics != nil {
		s.metrics.ObserveSync(string(trigger), outcome, time.Duration(res.DurationMs)*time.Millisecond)
	}

	s.logger.Info().
		Str("member_id", memberID).
		Str("trigger", string(trigger)).
		Str("outcome", outcome).
		Int("status", res.Status).
		Int("attempts", res.Attempts).
		Int64("duration_ms", res.DurationMs).
		Msg("sync finished")

	return res
}

func (s *SyncService) cooldownFor(trigger domain.SyncLogType) time.Duration {
	if trigger == domain.SyncLogCron {
		return s.cfg.BatchCooldown
	}
	return s.cfg.ManualCooldown
}

// PruneLogs applies the audit retention windows.
func (s *SyncService) PruneLogs(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.logs.Prune(ctx, now.Add(-s.cfg.SuccessLogRetention), now.Add(-s.cfg.FailureLogRetention))
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.ObservePruned(n)
	}
	return n, nil
}
