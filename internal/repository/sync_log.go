package repository

import (
	"context"
	"database/sql"
	"fmt"
	"roster-sync/internal/db"
	"roster-sync/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SyncLogRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSyncLogRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SyncLogRepository {
	return &SyncLogRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *SyncLogRepository) Insert(ctx context.Context, entry *domain.SyncLogEntry) error {
	id := entry.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := r.queries.InsertSyncLog(ctx, db.InsertSyncLogParams{
		ID:         id,
		Type:       string(entry.Type),
		MemberID:   entry.MemberID,
		Status:     string(entry.Status),
		Message:    entry.Message,
		DurationMs: entry.DurationMs,
		CreatedAt:  createdAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = createdAt
	return nil
}

// Write appends an entry and never fails: insert errors are only logged.
func (r *SyncLogRepository) Write(ctx context.Context, entry domain.SyncLogEntry) {
	if err := r.Insert(ctx, &entry); err != nil {
		r.logger.Error().
			Err(err).
			Str("member_id", entry.MemberID).
			Str("status", string(entry.Status)).
			Msg("sync log insert error")
	}
}

func (r *SyncLogRepository) List(ctx context.Context, limit int) ([]domain.SyncLogEntry, error) {
	rows, err := r.queries.ListSyncLogs(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	result := make([]domain.SyncLogEntry, len(rows))
	for i, row := range rows {
		result[i] = domain.SyncLogEntry{
			ID:         row.ID,
			Type:       domain.SyncLogType(row.Type),
			MemberID:   row.MemberID,
			Status:     domain.SyncLogStatus(row.Status),
			Message:    row.Message,
			DurationMs: row.DurationMs,
			CreatedAt:  row.CreatedAt,
		}
	}
	return result, nil
}

// Prune deletes success entries older than successBefore and every other
// entry older than otherBefore.
func (r *SyncLogRepository) Prune(ctx context.Context, successBefore, otherBefore time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	success, err := qtx.DeleteSuccessSyncLogsBefore(ctx, successBefore.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune success sync logs: %w", err)
	}
	other, err := qtx.DeleteOtherSyncLogsBefore(ctx, otherBefore.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync logs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	r.logger.Info().
		Int64("success_pruned", success).
		Int64("other_pruned", other).
		Time("success_before", successBefore).
		Time("other_before", otherBefore).
		Msg("sync logs pruned")
	return success + other, nil
}
