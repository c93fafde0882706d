package db

import (
	"context"
	"time"
)

const upsertMatch = `-- name: UpsertMatch :exec
INSERT INTO tft_matches (match_id, data_version, game_datetime, queue_id, tft_set_number, game_length_seconds, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(match_id) DO UPDATE SET
    data_version = excluded.data_version,
    game_datetime = excluded.game_datetime,
    queue_id = excluded.queue_id,
    tft_set_number = excluded.tft_set_number,
    game_length_seconds = excluded.game_length_seconds,
    updated_at = excluded.updated_at
`

type UpsertMatchParams struct {
	MatchID           string
	DataVersion       *string
	GameDatetime      *time.Time
	QueueID           *int64
	TftSetNumber      *int64
	GameLengthSeconds *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (q *Queries) UpsertMatch(ctx context.Context, arg UpsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatch,
		arg.MatchID,
		arg.DataVersion,
		arg.GameDatetime,
		arg.QueueID,
		arg.TftSetNumber,
		arg.GameLengthSeconds,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getMatch = `-- name: GetMatch :one
SELECT match_id, data_version, game_datetime, queue_id, tft_set_number, game_length_seconds, created_at, updated_at
FROM tft_matches
WHERE match_id = ?
`

func (q *Queries) GetMatch(ctx context.Context, matchID string) (TftMatch, error) {
	row := q.db.QueryRowContext(ctx, getMatch, matchID)
	var i TftMatch
	err := row.Scan(
		&i.MatchID,
		&i.DataVersion,
		&i.GameDatetime,
		&i.QueueID,
		&i.TftSetNumber,
		&i.GameLengthSeconds,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertMatchParticipant = `-- name: UpsertMatchParticipant :exec
INSERT INTO tft_match_participants (
    match_id, member_id, puuid, placement, level, time_eliminated, total_damage_to_players,
    augments, traits, units, created_at, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(match_id, member_id) DO UPDATE SET
    puuid = excluded.puuid,
    placement = excluded.placement,
    level = excluded.level,
    time_eliminated = excluded.time_eliminated,
    total_damage_to_players = excluded.total_damage_to_players,
    augments = excluded.augments,
    traits = excluded.traits,
    units = excluded.units,
    updated_at = excluded.updated_at
`

type UpsertMatchParticipantParams struct {
	MatchID              string
	MemberID             string
	Puuid                string
	Placement            *int64
	Level                *int64
	TimeEliminated       *float64
	TotalDamageToPlayers *int64
	Augments             *string
	Traits               *string
	Units                *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (q *Queries) UpsertMatchParticipant(ctx context.Context, arg UpsertMatchParticipantParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatchParticipant,
		arg.MatchID,
		arg.MemberID,
		arg.Puuid,
		arg.Placement,
		arg.Level,
		arg.TimeEliminated,
		arg.TotalDamageToPlayers,
		arg.Augments,
		arg.Traits,
		arg.Units,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const countParticipants = `-- name: CountParticipants :one
SELECT COUNT(*)
FROM tft_match_participants
WHERE match_id = ? AND member_id = ?
`

type CountParticipantsParams struct {
	MatchID  string
	MemberID string
}

func (q *Queries) CountParticipants(ctx context.Context, arg CountParticipantsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countParticipants, arg.MatchID, arg.MemberID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listParticipantsByMember = `-- name: ListParticipantsByMember :many
SELECT p.id, p.match_id, p.member_id, p.puuid, p.placement, p.level, p.time_eliminated,
       p.total_damage_to_players, p.augments, p.traits, p.units, p.created_at, p.updated_at
FROM tft_match_participants p
JOIN tft_matches m ON m.match_id = p.match_id
WHERE p.member_id = ?
ORDER BY m.game_datetime DESC, p.match_id DESC
LIMIT ?
`

type ListParticipantsByMemberParams struct {
	MemberID string
	Limit    int64
}

func (q *Queries) ListParticipantsByMember(ctx context.Context, arg ListParticipantsByMemberParams) ([]TftMatchParticipant, error) {
	rows, err := q.db.QueryContext(ctx, listParticipantsByMember, arg.MemberID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TftMatchParticipant
	for rows.Next() {
		var i TftMatchParticipant
		if err := rows.Scan(
			&i.ID,
			&i.MatchID,
			&i.MemberID,
			&i.Puuid,
			&i.Placement,
			&i.Level,
			&i.TimeEliminated,
			&i.TotalDamageToPlayers,
			&i.Augments,
			&i.Traits,
			&i.Units,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const deleteParticipantsByMember = `-- name: DeleteParticipantsByMember :execrows
DELETE FROM tft_match_participants
WHERE member_id = ?
`

func (q *Queries) DeleteParticipantsByMember(ctx context.Context, memberID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteParticipantsByMember, memberID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
