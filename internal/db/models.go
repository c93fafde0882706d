package db

import (
	"time"
)

type Member struct {
	ID                      string
	MemberName              string
	RiotGameName            string
	RiotTagline             string
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
	TftRecent5              *string
	SyncStatus              string
	SyncAttempts            int64
	LastSyncStartedAt       *time.Time
	LastSyncFinishedAt      *time.Time
	LastSyncError           *string
	LastSyncedAt            *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type TftMatch struct {
	MatchID           string
	DataVersion       *string
	GameDatetime      *time.Time
	QueueID           *int64
	TftSetNumber      *int64
	GameLengthSeconds *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TftMatchParticipant struct {
	ID                   int64
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

type SyncLog struct {
	ID         string
	Type       string
	MemberID   string
	Status     string
	Message    *string
	DurationMs *int64
	CreatedAt  time.Time
}
