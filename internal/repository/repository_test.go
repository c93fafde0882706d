package repository

import (
	"context"
	"database/sql"
	"roster-sync/internal/database"
	"roster-sync/internal/db"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testRepos struct {
	db      *sql.DB
	members *MemberRepository
	matches *MatchRepository
	logs    *SyncLogRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	sqlDB, err := database.Open(database.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	logger := zerolog.Nop()
	return &testRepos{
		db:      sqlDB,
		members: NewMemberRepository(sqlDB, queries, logger),
		matches: NewMatchRepository(sqlDB, queries, logger),
		logs:    NewSyncLogRepository(sqlDB, queries, logger),
	}
}

func createMember(t *testing.T, repo *MemberRepository, name string) string {
	t.Helper()
	m, err := repo.Create(context.Background(), NewMember{MemberName: name, GameName: name, Tagline: "KR1"})
	require.NoError(t, err)
	return m.ID
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
