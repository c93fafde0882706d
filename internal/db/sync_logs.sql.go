package db

import (
	"context"
	"time"
)

const insertSyncLog = `-- name: InsertSyncLog :exec
INSERT INTO sync_logs (id, type, member_id, status, message, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertSyncLogParams struct {
	ID         string
	Type       string
	MemberID   string
	Status     string
	Message    *string
	DurationMs *int64
	CreatedAt  time.Time
}

func (q *Queries) InsertSyncLog(ctx context.Context, arg InsertSyncLogParams) error {
	_, err := q.db.ExecContext(ctx, insertSyncLog,
		arg.ID,
		arg.Type,
		arg.MemberID,
		arg.Status,
		arg.Message,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}

const listSyncLogs = `-- name: ListSyncLogs :many
SELECT id, type, member_id, status, message, duration_ms, created_at
FROM sync_logs
ORDER BY created_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListSyncLogs(ctx context.Context, limit int64) ([]SyncLog, error) {
	rows, err := q.db.QueryContext(ctx, listSyncLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SyncLog
	for rows.Next() {
		var i SyncLog
		if err := rows.Scan(
			&i.ID,
			&i.Type,
			&i.MemberID,
			&i.Status,
			&i.Message,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
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

const deleteSuccessSyncLogsBefore = `-- name: DeleteSuccessSyncLogsBefore :execrows
DELETE FROM sync_logs
WHERE status = 'success' AND created_at < ?
`

func (q *Queries) DeleteSuccessSyncLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSuccessSyncLogsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteOtherSyncLogsBefore = `-- name: DeleteOtherSyncLogsBefore :execrows
DELETE FROM sync_logs
WHERE status <> 'success' AND created_at < ?
`

func (q *Queries) DeleteOtherSyncLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteOtherSyncLogsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
