package service

import (
	"context"
	"fmt"
	"roster-sync/internal/api"
	"roster-sync/internal/config"
	"roster-sync/internal/database"
	"roster-sync/internal/db"
	"roster-sync/internal/domain"
	"roster-sync/internal/metrics"
	"roster-sync/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeRanked serves canned ranked API responses. Errors queued per endpoint
// are returned first, in order.
type fakeRanked struct {
	mu sync.Mutex

	puuid     string
	standings []api.LeagueEntry
	matchIDs  []string
	details   map[string]*api.MatchResponse

	errs  map[string][]error
	calls map[string]int
}

func newFakeRanked() *fakeRanked {
	return &fakeRanked{
		puuid:   "puuid-1",
		details: map[string]*api.MatchResponse{},
		errs:    map[string][]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeRanked) fail(endpoint string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[endpoint] = append(f.errs[endpoint], errs...)
}

func (f *fakeRanked) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeRanked) next(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	queue := f.errs[endpoint]
	if len(queue) == 0 {
		return nil
	}
	if s, ok := queue[0].(stickyErr); ok {
		return s.error
	}
	f.errs[endpoint] = queue[1:]
	return queue[0]
}

// stickyErr keeps failing once it reaches the head of the queue.
type stickyErr struct{ error }

func (f *fakeRanked) ResolveIdentity(ctx context.Context, gameName, tagline string) (string, error) {
	if err := f.next(api.EndpointIdentity); err != nil {
		return "", err
	}
	return f.puuid, nil
}

func (f *fakeRanked) FetchStandings(ctx context.Context, puuid string) ([]api.LeagueEntry, error) {
	if err := f.next(api.EndpointStandings); err != nil {
		return nil, err
	}
	return f.standings, nil
}

func (f *fakeRanked) FetchRecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if err := f.next(api.EndpointMatchIDs); err != nil {
		return nil, err
	}
	if len(f.matchIDs) > count {
		return f.matchIDs[:count], nil
	}
	return f.matchIDs, nil
}

func (f *fakeRanked) FetchMatchDetail(ctx context.Context, matchID string) (*api.MatchResponse, error) {
	if err := f.next(api.EndpointMatch); err != nil {
		return nil, err
	}
	d, ok := f.details[matchID]
	if !ok {
		return nil, &api.APIError{Status: 404, Body: "match not found"}
	}
	return d, nil
}

func (f *fakeRanked) addMatch(matchID string, placements map[string]*int) {
	detail := &api.MatchResponse{
		Metadata: api.MatchMetadata{DataVersion: "6", MatchID: matchID},
		Info: api.MatchInfo{
			GameDatetime: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
			GameLength:   2040.4,
			QueueID:      1100,
		},
	}
	for puuid, placement := range placements {
		detail.Metadata.Participants = append(detail.Metadata.Participants, puuid)
		detail.Info.Participants = append(detail.Info.Participants, api.MatchParticipant{
			Puuid:     puuid,
			Placement: placement,
			Level:     8,
		})
	}
	f.details[matchID] = detail
	f.matchIDs = append(f.matchIDs, matchID)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.sleeps...)
}

type harness struct {
	cfg     *config.Config
	api     *fakeRanked
	metrics *metrics.Metrics

	members *repository.MemberRepository
	matches *repository.MatchRepository
	logs    *repository.SyncLogRepository

	engine       *Engine
	orchestrator *Orchestrator
	syncer       *SyncService
	batch        *BatchCoordinator

	retrySleeps  *sleepRecorder
	matchSleeps  *sleepRecorder
	memberSleeps *sleepRecorder
}

func testConfig() *config.Config {
	return &config.Config{
		RiotAPIKey: "key",
		Sync: config.SyncConfig{
			MaxAttempts:         5,
			BackoffBase:         time.Second,
			BackoffMax:          16 * time.Second,
			ThrottleFallback:    30 * time.Second,
			ManualCooldown:      10 * time.Minute,
			BatchCooldown:       5 * time.Minute,
			MatchCount:          5,
			MatchDelay:          1200 * time.Millisecond,
			MemberDelay:         1500 * time.Millisecond,
			BatchSize:           20,
			StaleAfter:          time.Hour,
			RunningTimeout:      15 * time.Minute,
			SuccessLogRetention: 7 * 24 * time.Hour,
			FailureLogRetention: 30 * 24 * time.Hour,
			PrimaryQueue:        "RANKED_TFT",
			SecondaryQueue:      "RANKED_TFT_DOUBLE_UP",
		},
	}
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	sqlDB, err := database.Open(database.MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	logger := zerolog.Nop()
	queries := db.New(sqlDB)

	h := &harness{
		cfg:          cfg,
		api:          newFakeRanked(),
		metrics:      metrics.New(),
		members:      repository.NewMemberRepository(sqlDB, queries, logger),
		matches:      repository.NewMatchRepository(sqlDB, queries, logger),
		logs:         repository.NewSyncLogRepository(sqlDB, queries, logger),
		retrySleeps:  &sleepRecorder{},
		matchSleeps:  &sleepRecorder{},
		memberSleeps: &sleepRecorder{},
	}

	h.engine = NewEngine(h.members, NewRetryPolicy(cfg), h.metrics, logger)
	h.engine.sleep = h.retrySleeps.sleep
	h.engine.jitter = func(time.Duration) time.Duration { return 0 }

	h.orchestrator = NewOrchestrator(h.api, h.members, h.matches, cfg, logger)
	h.orchestrator.sleep = h.matchSleeps.sleep

	h.syncer = NewSyncService(h.engine, h.orchestrator, h.logs, cfg, h.metrics, logger)

	h.batch = NewBatchCoordinator(h.members, h.syncer, cfg, h.metrics, logger)
	h.batch.sleep = h.memberSleeps.sleep

	return h
}

func (h *harness) addMember(t *testing.T, name string) string {
	t.Helper()
	m, err := h.members.Create(context.Background(), repository.NewMember{
		MemberName: name,
		GameName:   name,
		Tagline:    "KR1",
	})
	require.NoError(t, err)
	return m.ID
}

func (h *harness) member(t *testing.T, id string) *domain.Member {
	t.Helper()
	m, err := h.members.Get(context.Background(), id)
	require.NoError(t, err)
	return m
}

func throttled(seconds int) error {
	return &api.APIError{Status: 429, RetryAfterSeconds: &seconds, Body: "rate limit exceeded"}
}

func upstream(status int) error {
	return &api.APIError{Status: status, Body: fmt.Sprintf("status %d", status)}
}

func intPtr(i int) *int { return &i }
