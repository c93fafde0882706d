package service

import (
	"context"
	"fmt"
	"roster-sync/internal/config"
	"roster-sync/internal/constants"
	"roster-sync/internal/domain"
	"roster-sync/internal/metrics"
	"time"

	"github.com/rs/zerolog"
)

type MemberSyncer interface {
	SyncMember(ctx context.Context, memberID string, trigger domain.SyncLogType) Result
	PruneLogs(ctx context.Context) (int64, error)
}

type BatchRequest struct {
	Limit   int                `json:"limit,omitempty"`
	Cursor  string             `json:"cursor,omitempty"`
	Trigger domain.SyncLogType `json:"-"`
}

type BatchResult struct {
	NextCursor string   `json:"nextCursor"`
	Done       bool     `json:"done"`
	Processed  int      `json:"processed"`
	Results    []Result `json:"results"`
}

// BatchCoordinator syncs one page of stale members, one member at a time.
type BatchCoordinator struct {
	members StaleMemberLister
	syncer  MemberSyncer
	cfg     config.SyncConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger

	sleep Sleeper
	now   func() time.Time
}

func NewBatchCoordinator(members StaleMemberLister, syncer MemberSyncer, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *BatchCoordinator {
	return &BatchCoordinator{
		members: members,
		syncer:  syncer,
		cfg:     cfg.Sync,
		metrics: m,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// RunBatch selects up to req.Limit stale members after req.Cursor and syncs
// them in id order. Done is set when the selection came back short.
func (c *BatchCoordinator) RunBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = c.cfg.BatchSize
	}
	if limit > constants.MaxBatchLimit {
		limit = constants.MaxBatchLimit
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = domain.SyncLogManual
	}

	if trigger == domain.SyncLogCron && req.Cursor == "" {
		if n, err := c.syncer.PruneLogs(ctx); err != nil {
			c.logger.Error().Err(err).Msg("failed to prune sync logs")
		} else {
			c.logger.Info().Int64("pruned", n).Msg("sync logs pruned")
		}
	}

	now := c.now()
	stale, err := c.members.ListStale(ctx, now.Add(-c.cfg.StaleAfter), now.Add(-c.cfg.RunningTimeout), req.Cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select stale members: %w", err)
	}

	c.logger.Info().
		Str("trigger", string(trigger)).
		Str("cursor", req.Cursor).
		Int("limit", limit).
		Int("selected", len(stale)).
		Msg("batch started")

	result := &BatchResult{
		NextCursor: req.Cursor,
		Done:       len(stale) < limit,
		Results:    make([]Result, 0, len(stale)),
	}

	for i, member := range stale {
		res := c.syncer.SyncMember(ctx, member.ID, trigger)
		result.Results = append(result.Results, res)
		result.NextCursor = member.ID
		result.Processed++
		if c.metrics != nil {
			c.metrics.ObserveBatchMember(string(trigger))
		}

		if i < len(stale)-1 {
			if err := c.sleep(ctx, c.cfg.MemberDelay); err != nil {
				c.logger.Warn().Err(err).Str("cursor", result.NextCursor).Msg("batch interrupted")
				result.Done = false
				break
			}
		}
	}

	c.logger.Info().
		Str("next_cursor", result.NextCursor).
		Bool("done", result.Done).
		Int("processed", result.Processed).
		Msg("batch finished")

	return result, nil
}

// RunAll pages through every stale member until a batch reports done.
func (c *BatchCoordinator) RunAll(ctx context.Context, trigger domain.SyncLogType) ([]Result, error) {
	var all []Result
	cursor := ""
	for {
		res, err := c.RunBatch(ctx, BatchRequest{Cursor: cursor, Trigger: trigger})
		if err != nil {
			return all, err
		}
		all = append(all, res.Results...)
		if res.Done || res.Processed == 0 {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return all, err
		}
		cursor = res.NextCursor
		if err := c.sleep(ctx, c.cfg.MemberDelay); err != nil {
			return all, err
		}
	}
}
