package domain

import (
	"encoding/json"
	"time"
)

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// Standing is a ladder entry for one queue variant. A nil field means the
// member is unranked in that variant or has never been synced.
type Standing struct {
	Tier     *string
	Division *string
	Points   *int
	Wins     *int
	Losses   *int
}

func (s Standing) Ranked() bool {
	return s.Tier != nil
}

type Member struct {
	ID         string
	MemberName string
	GameName   string
	Tagline    string
	Puuid      *string

	Primary   Standing
	Secondary Standing

	// Recent is the rolling record, see EncodeRecent.
	Recent *string

	SyncStatus         SyncStatus
	SyncAttempts       int
	LastSyncStartedAt  *time.Time
	LastSyncFinishedAt *time.Time
	LastSyncError      *string
	LastSyncedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Match struct {
	MatchID           string
	DataVersion       *string
	GameDatetime      *time.Time
	QueueID           *int
	SetNumber         *int
	GameLengthSeconds *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type MatchParticipant struct {
	MatchID              string
	MemberID             string
	Puuid                string
	Placement            *int
	Level                *int
	TimeEliminated       *float64
	TotalDamageToPlayers *int
	Augments             json.RawMessage
	Traits               json.RawMessage
	Units                json.RawMessage
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type SyncLogType string

const (
	SyncLogManual SyncLogType = "manual"
	SyncLogCron   SyncLogType = "cron"
)

type SyncLogStatus string

const (
	SyncLogSuccess SyncLogStatus = "success"
	SyncLogSkipped SyncLogStatus = "skipped"
	SyncLogError   SyncLogStatus = "error"
)

type SyncLogEntry struct {
	ID         string // nanoid
	Type       SyncLogType
	MemberID   string
	Status     SyncLogStatus
	Message    *string
	DurationMs *int64
	CreatedAt  time.Time
}
