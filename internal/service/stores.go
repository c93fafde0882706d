package service

import (
	"context"
	"roster-sync/internal/api"
	"roster-sync/internal/domain"
	"time"
)

// RankedAPI is the subset of the ranked API client a sync pass needs.
type RankedAPI interface {
	ResolveIdentity(ctx context.Context, gameName, tagline string) (string, error)
	FetchStandings(ctx context.Context, puuid string) ([]api.LeagueEntry, error)
	FetchRecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	FetchMatchDetail(ctx context.Context, matchID string) (*api.MatchResponse, error)
}

// SyncStateStore persists the per-member bookkeeping columns.
type SyncStateStore interface {
	MarkRunning(ctx context.Context, id string, at time.Time) error
	MarkSucceeded(ctx context.Context, id string, at time.Time) error
	MarkSkipped(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, at time.Time, message string) error
}

type MemberStore interface {
	Get(ctx context.Context, id string) (*domain.Member, error)
	UpdateStanding(ctx context.Context, id, puuid string, primary, secondary domain.Standing) (int64, error)
	UpdateRecent(ctx context.Context, id, recent string) (int64, error)
}

type MatchStore interface {
	UpsertMatch(ctx context.Context, match *domain.Match) error
	UpsertParticipant(ctx context.Context, p *domain.MatchParticipant) error
}

type StaleMemberLister interface {
	ListStale(ctx context.Context, staleBefore, runningBefore time.Time, cursor string, limit int) ([]domain.Member, error)
}

type SyncLogStore interface {
	Write(ctx context.Context, entry domain.SyncLogEntry)
	Prune(ctx context.Context, successBefore, otherBefore time.Time) (int64, error)
}
