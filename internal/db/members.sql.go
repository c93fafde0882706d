package db

import (
	"context"
	"time"
)

const memberColumns = `id, member_name, riot_game_name, riot_tagline, riot_puuid,
tft_tier, tft_rank, tft_league_points, tft_wins, tft_losses,
tft_doubleup_tier, tft_doubleup_rank, tft_doubleup_league_points, tft_doubleup_wins, tft_doubleup_losses,
tft_recent5, sync_status, sync_attempts, last_sync_started_at, last_sync_finished_at,
last_sync_error, last_synced_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (Member, error) {
	var i Member
	err := row.Scan(
		&i.ID,
		&i.MemberName,
		&i.RiotGameName,
		&i.RiotTagline,
		&i.RiotPuuid,
		&i.TftTier,
		&i.TftRank,
		&i.TftLeaguePoints,
		&i.TftWins,
		&i.TftLosses,
		&i.TftDoubleupTier,
		&i.TftDoubleupRank,
		&i.TftDoubleupLeaguePoints,
		&i.TftDoubleupWins,
		&i.TftDoubleupLosses,
		&i.TftRecent5,
		&i.SyncStatus,
		&i.SyncAttempts,
		&i.LastSyncStartedAt,
		&i.LastSyncFinishedAt,
		&i.LastSyncError,
		&i.LastSyncedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMember = `-- name: CreateMember :exec
INSERT INTO members (id, member_name, riot_game_name, riot_tagline, sync_status, sync_attempts, created_at, updated_at)
VALUES (?, ?, ?, ?, 'pending', 0, ?, ?)
`

type CreateMemberParams struct {
	ID           string
	MemberName   string
	RiotGameName string
	RiotTagline  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) error {
	_, err := q.db.ExecContext(ctx, createMember,
		arg.ID,
		arg.MemberName,
		arg.RiotGameName,
		arg.RiotTagline,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getMember = `-- name: GetMember :one
SELECT ` + memberColumns + `
FROM members
WHERE id = ?
`

func (q *Queries) GetMember(ctx context.Context, id string) (Member, error) {
	row := q.db.QueryRowContext(ctx, getMember, id)
	return scanMember(row)
}

const listMembers = `-- name: ListMembers :many
SELECT ` + memberColumns + `
FROM members
ORDER BY member_name, id
`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		i, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStaleMembers = `-- name: ListStaleMembers :many
SELECT ` + memberColumns + `
FROM members
WHERE (last_synced_at IS NULL OR last_synced_at < ?)
  AND (sync_status <> 'running' OR last_sync_started_at IS NULL OR last_sync_started_at < ?)
  AND id > ?
ORDER BY id
LIMIT ?
`

type ListStaleMembersParams struct {
	StaleBefore   time.Time
	RunningBefore time.Time
	Cursor        string
	Limit         int64
}

func (q *Queries) ListStaleMembers(ctx context.Context, arg ListStaleMembersParams) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, listStaleMembers,
		arg.StaleBefore,
		arg.RunningBefore,
		arg.Cursor,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		i, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteMember = `-- name: DeleteMember :execrows
DELETE FROM members
WHERE id = ?
`

func (q *Queries) DeleteMember(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMember, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markSyncRunning = `-- name: MarkSyncRunning :execrows
UPDATE members
SET sync_status = 'running',
    sync_attempts = sync_attempts + 1,
    last_sync_started_at = ?,
    last_sync_error = NULL,
    updated_at = ?
WHERE id = ?
`

type MarkSyncRunningParams struct {
	StartedAt time.Time
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) MarkSyncRunning(ctx context.Context, arg MarkSyncRunningParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSyncRunning, arg.StartedAt, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markSyncSucceeded = `-- name: MarkSyncSucceeded :execrows
UPDATE members
SET sync_status = 'success',
    last_sync_finished_at = ?,
    last_synced_at = ?,
    last_sync_error = NULL,
    updated_at = ?
WHERE id = ?
`

type MarkSyncSucceededParams struct {
	FinishedAt   time.Time
	LastSyncedAt time.Time
	UpdatedAt    time.Time
	ID           string
}

func (q *Queries) MarkSyncSucceeded(ctx context.Context, arg MarkSyncSucceededParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSyncSucceeded, arg.FinishedAt, arg.LastSyncedAt, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markSyncSkipped = `-- name: MarkSyncSkipped :execrows
UPDATE members
SET sync_status = 'success',
    last_sync_finished_at = ?,
    last_sync_error = NULL,
    updated_at = ?
WHERE id = ?
`

type MarkSyncSkippedParams struct {
	FinishedAt time.Time
	UpdatedAt  time.Time
	ID         string
}

func (q *Queries) MarkSyncSkipped(ctx context.Context, arg MarkSyncSkippedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSyncSkipped, arg.FinishedAt, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markSyncFailed = `-- name: MarkSyncFailed :execrows
UPDATE members
SET sync_status = 'failed',
    last_sync_finished_at = ?,
    last_sync_error = ?,
    updated_at = ?
WHERE id = ?
`

type MarkSyncFailedParams struct {
	FinishedAt    time.Time
	LastSyncError string
	UpdatedAt     time.Time
	ID            string
}

func (q *Queries) MarkSyncFailed(ctx context.Context, arg MarkSyncFailedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markSyncFailed, arg.FinishedAt, arg.LastSyncError, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateMemberStanding = `-- name: UpdateMemberStanding :execrows
UPDATE members
SET riot_puuid = ?,
    tft_tier = ?,
    tft_rank = ?,
    tft_league_points = ?,
    tft_wins = ?,
    tft_losses = ?,
    tft_doubleup_tier = ?,
    tft_doubleup_rank = ?,
    tft_doubleup_league_points = ?,
    tft_doubleup_wins = ?,
    tft_doubleup_losses = ?,
    updated_at = ?
WHERE id = ?
`

type UpdateMemberStandingParams struct {
	RiotPuuid               *string
	TftTier                 *string
	TftRank                 *string
	TftLeaguePoints         *int64
	TftWins                 *int64
	TftLosses               *int64
	TftDoubleupTier         *string
	TftDoubleupRank         *string
	TftDoubleupLeaguePoints *int64
	TftDoubleupWins         *int64
	TftDoubleupLosses       *int64
	UpdatedAt               time.Time
	ID                      string
}

func (q *Queries) UpdateMemberStanding(ctx context.Context, arg UpdateMemberStandingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMemberStanding,
		arg.RiotPuuid,
		arg.TftTier,
		arg.TftRank,
		arg.TftLeaguePoints,
		arg.TftWins,
		arg.TftLosses,
		arg.TftDoubleupTier,
		arg.TftDoubleupRank,
		arg.TftDoubleupLeaguePoints,
		arg.TftDoubleupWins,
		arg.TftDoubleupLosses,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateMemberRecent = `-- name: UpdateMemberRecent :execrows
UPDATE members
SET tft_recent5 = ?,
    updated_at = ?
WHERE id = ?
`

type UpdateMemberRecentParams struct {
	TftRecent5 string
	UpdatedAt  time.Time
	ID         string
}

func (q *Queries) UpdateMemberRecent(ctx context.Context, arg UpdateMemberRecentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateMemberRecent, arg.TftRecent5, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
