package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"roster-sync/internal/db"
	"roster-sync/internal/domain"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("not found")

type MemberRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMemberRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MemberRepository {
	return &MemberRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

type NewMember struct {
	MemberName string
	GameName   string
	Tagline    string
}

func (r *MemberRepository) Create(ctx context.Context, in NewMember) (*domain.Member, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	err := r.queries.CreateMember(ctx, db.CreateMemberParams{
		ID:           id,
		MemberName:   in.MemberName,
		RiotGameName: in.GameName,
		RiotTagline:  in.Tagline,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}

	r.logger.Info().Str("member_id", id).Str("member_name", in.MemberName).Msg("member created")
	return r.Get(ctx, id)
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*domain.Member, error) {
	row, err := r.queries.GetMember(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m := toDomainMember(row)
	return &m, nil
}

func (r *MemberRepository) List(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.queries.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainMembers(rows), nil
}

// ListStale returns up to limit members, ordered by id and strictly after
// cursor, that never synced or last synced before staleBefore. Members marked
// running are skipped unless the mark predates runningBefore.
func (r *MemberRepository) ListStale(ctx context.Context, staleBefore, runningBefore time.Time, cursor string, limit int) ([]domain.Member, error) {
	rows, err := r.queries.ListStaleMembers(ctx, db.ListStaleMembersParams{
		StaleBefore:   staleBefore.UTC(),
		RunningBefore: runningBefore.UTC(),
		Cursor:        cursor,
		Limit:         int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return toDomainMembers(rows), nil
}

// Delete removes the member's participation rows and then the member itself.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	parts, err := qtx.DeleteParticipantsByMember(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete participations of member %s: %w", id, err)
	}

	n, err := qtx.DeleteMember(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete member %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info().Str("member_id", id).Int64("participations", parts).Msg("member deleted")
	return nil
}

func (r *MemberRepository) MarkRunning(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.MarkSyncRunning(ctx, db.MarkSyncRunningParams{
		StartedAt: at.UTC(),
		UpdatedAt: at.UTC(),
		ID:        id,
	})
	return affected(n, err)
}

func (r *MemberRepository) MarkSucceeded(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.MarkSyncSucceeded(ctx, db.MarkSyncSucceededParams{
		FinishedAt:   at.UTC(),
		LastSyncedAt: at.UTC(),
		UpdatedAt:    at.UTC(),
		ID:           id,
	})
	return affected(n, err)
}

// MarkSkipped closes a run that stopped at the cooldown guard. last_synced_at
// is left untouched.
func (r *MemberRepository) MarkSkipped(ctx context.Context, id string, at time.Time) error {
	n, err := r.queries.MarkSyncSkipped(ctx, db.MarkSyncSkippedParams{
		FinishedAt: at.UTC(),
		UpdatedAt:  at.UTC(),
		ID:         id,
	})
	return affected(n, err)
}

func (r *MemberRepository) MarkFailed(ctx context.Context, id string, at time.Time, message string) error {
	n, err := r.queries.MarkSyncFailed(ctx, db.MarkSyncFailedParams{
		FinishedAt:    at.UTC(),
		LastSyncError: message,
		UpdatedAt:     at.UTC(),
		ID:            id,
	})
	return affected(n, err)
}

// UpdateStanding writes the resolved account id and both ladder standings in
// a single statement and reports the number of rows it touched.
func (r *MemberRepository) UpdateStanding(ctx context.Context, id, puuid string, primary, secondary domain.Standing) (int64, error) {
	return r.queries.UpdateMemberStanding(ctx, db.UpdateMemberStandingParams{
		RiotPuuid:               &puuid,
		TftTier:                 primary.Tier,
		TftRank:                 primary.Division,
		TftLeaguePoints:         toInt64Ptr(primary.Points),
		TftWins:                 toInt64Ptr(primary.Wins),
		TftLosses:               toInt64Ptr(primary.Losses),
		TftDoubleupTier:         secondary.Tier,
		TftDoubleupRank:         secondary.Division,
		TftDoubleupLeaguePoints: toInt64Ptr(secondary.Points),
		TftDoubleupWins:         toInt64Ptr(secondary.Wins),
		TftDoubleupLosses:       toInt64Ptr(secondary.Losses),
		UpdatedAt:               time.Now().UTC(),
		ID:                      id,
	})
}

func (r *MemberRepository) UpdateRecent(ctx context.Context, id, recent string) (int64, error) {
	return r.queries.UpdateMemberRecent(ctx, db.UpdateMemberRecentParams{
		TftRecent5: recent,
		UpdatedAt:  time.Now().UTC(),
		ID:         id,
	})
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toDomainMembers(rows []db.Member) []domain.Member {
	result := make([]domain.Member, len(rows))
	for i, row := range rows {
		result[i] = toDomainMember(row)
	}
	return result
}

func toDomainMember(row db.Member) domain.Member {
	return domain.Member{
		ID:         row.ID,
		MemberName: row.MemberName,
		GameName:   row.RiotGameName,
		Tagline:    row.RiotTagline,
		Puuid:      row.RiotPuuid,
		Primary: domain.Standing{
			Tier:     row.TftTier,
			Division: row.TftRank,
			Points:   toIntPtr(row.TftLeaguePoints),
			Wins:     toIntPtr(row.TftWins),
			Losses:   toIntPtr(row.TftLosses),
		},
		Secondary: domain.Standing{
			Tier:     row.TftDoubleupTier,
			Division: row.TftDoubleupRank,
			Points:   toIntPtr(row.TftDoubleupLeaguePoints),
			Wins:     toIntPtr(row.TftDoubleupWins),
			Losses:   toIntPtr(row.TftDoubleupLosses),
		},
		Recent:             row.TftRecent5,
		SyncStatus:         domain.SyncStatus(row.SyncStatus),
		SyncAttempts:       int(row.SyncAttempts),
		LastSyncStartedAt:  row.LastSyncStartedAt,
		LastSyncFinishedAt: row.LastSyncFinishedAt,
		LastSyncError:      row.LastSyncError,
		LastSyncedAt:       row.LastSyncedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func toIntPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func toInt64Ptr(v *int) *int64 {
	if v == nil {
		return nil
	}
	i := int64(*v)
	return &i
}
