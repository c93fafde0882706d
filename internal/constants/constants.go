package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// LobbySize is the number of players in a standard match.
	LobbySize = 8
	// RecentResultsLength is how many placements the rolling record keeps.
	RecentResultsLength = 5
)

const (
	DefaultSyncLogLimit = 50
	MaxSyncLogLimit     = 500
	MaxBatchLimit       = 100
)
