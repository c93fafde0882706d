package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"roster-sync/internal/db"
	"roster-sync/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// UpsertMatch inserts the match or overwrites the stored row with the same id.
func (r *MatchRepository) UpsertMatch(ctx context.Context, match *domain.Match) error {
	now := time.Now().UTC()
	var gameDatetime *time.Time
	if match.GameDatetime != nil {
		t := match.GameDatetime.UTC()
		gameDatetime = &t
	}
	return r.queries.UpsertMatch(ctx, db.UpsertMatchParams{
		MatchID:           match.MatchID,
		DataVersion:       match.DataVersion,
		GameDatetime:      gameDatetime,
		QueueID:           toInt64Ptr(match.QueueID),
		TftSetNumber:      toInt64Ptr(match.SetNumber),
		GameLengthSeconds: toInt64Ptr(match.GameLengthSeconds),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

// UpsertParticipant replaces the member's participation row for the match.
// There is at most one row per (match, member) pair.
func (r *MatchRepository) UpsertParticipant(ctx context.Context, p *domain.MatchParticipant) error {
	now := time.Now().UTC()
	return r.queries.UpsertMatchParticipant(ctx, db.UpsertMatchParticipantParams{
		MatchID:              p.MatchID,
		MemberID:             p.MemberID,
		Puuid:                p.Puuid,
		Placement:            toInt64Ptr(p.Placement),
		Level:                toInt64Ptr(p.Level),
		TimeEliminated:       p.TimeEliminated,
		TotalDamageToPlayers: toInt64Ptr(p.TotalDamageToPlayers),
		Augments:             rawToString(p.Augments),
		Traits:               rawToString(p.Traits),
		Units:                rawToString(p.Units),
		CreatedAt:            now,
		UpdatedAt:            now,
	})
}

func (r *MatchRepository) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	row, err := r.queries.GetMatch(ctx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.Match{
		MatchID:           row.MatchID,
		DataVersion:       row.DataVersion,
		GameDatetime:      row.GameDatetime,
		QueueID:           toIntPtr(row.QueueID),
		SetNumber:         toIntPtr(row.TftSetNumber),
		GameLengthSeconds: toIntPtr(row.GameLengthSeconds),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

func (r *MatchRepository) CountParticipants(ctx context.Context, matchID, memberID string) (int64, error) {
	return r.queries.CountParticipants(ctx, db.CountParticipantsParams{
		MatchID:  matchID,
		MemberID: memberID,
	})
}

// ListByMember returns the member's most recent participations first.
func (r *MatchRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]domain.MatchParticipant, error) {
	rows, err := r.queries.ListParticipantsByMember(ctx, db.ListParticipantsByMemberParams{
		MemberID: memberID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.MatchParticipant, len(rows))
	for i, p := range rows {
		result[i] = domain.MatchParticipant{
			MatchID:              p.MatchID,
			MemberID:             p.MemberID,
			Puuid:                p.Puuid,
			Placement:            toIntPtr(p.Placement),
			Level:                toIntPtr(p.Level),
			TimeEliminated:       p.TimeEliminated,
			TotalDamageToPlayers: toIntPtr(p.TotalDamageToPlayers),
			Augments:             stringToRaw(p.Augments),
			Traits:               stringToRaw(p.Traits),
			Units:                stringToRaw(p.Units),
			CreatedAt:            p.CreatedAt,
			UpdatedAt:            p.UpdatedAt,
		}
	}
	return result, nil
}

func rawToString(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}

func stringToRaw(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}
