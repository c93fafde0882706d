package service

import (
	"context"
	"roster-sync/internal/domain"
	"roster-sync/internal/repository"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemberService(h *harness) *MemberService {
	return NewMemberService(h.members, h.matches, h.logs, zerolog.Nop())
}

func TestMemberService_CreateNormalizes(t *testing.T) {
	h := newHarness(t)
	svc := newMemberService(h)

	m, err := svc.Create(context.Background(), repository.NewMember{
		MemberName: "  Faker ",
		GameName:   " hide on bush ",
		Tagline:    "#KR1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Faker", m.MemberName)
	assert.Equal(t, "hide on bush", m.GameName)
	assert.Equal(t, "KR1", m.Tagline)
	assert.Equal(t, domain.SyncStatusPending, m.SyncStatus)
}

func TestMemberService_Detail(t *testing.T) {
	h := newHarness(t)
	svc := newMemberService(h)
	id := h.addMember(t, "a")
	h.api.addMatch("KR_2", map[string]*int{"puuid-1": intPtr(1)})
	h.api.addMatch("KR_1", map[string]*int{"puuid-1": intPtr(6)})
	require.True(t, h.syncer.SyncMember(context.Background(), id, domain.SyncLogManual).OK)

	detail, err := svc.Get(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 6}, detail.RecentPlacements)
	assert.InDelta(t, 0.5, detail.WinRate, 1e-9)
	assert.InDelta(t, 3.5, detail.AveragePlacement, 1e-9)
	assert.Len(t, detail.Matches, 2)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemberService_LegacyRecordStillYieldsWinRate(t *testing.T) {
	h := newHarness(t)
	svc := newMemberService(h)
	id := h.addMember(t, "a")
	_, err := h.members.UpdateRecent(context.Background(), id, "W,L,L,W")
	require.NoError(t, err)

	members, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)

	assert.Empty(t, members[0].RecentPlacements)
	assert.InDelta(t, 0.5, members[0].WinRate, 1e-9)
	assert.Zero(t, members[0].AveragePlacement)
}

func TestMemberService_Delete(t *testing.T) {
	h := newHarness(t)
	svc := newMemberService(h)
	id := h.addMember(t, "a")

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.ErrorIs(t, svc.Delete(context.Background(), id), repository.ErrNotFound)
}

func TestMemberService_SyncLogsLimit(t *testing.T) {
	h := newHarness(t)
	svc := newMemberService(h)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.logs.Write(ctx, domain.SyncLogEntry{Type: domain.SyncLogManual, MemberID: "m", Status: domain.SyncLogSuccess})
	}

	logs, err := svc.SyncLogs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = svc.SyncLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}
