package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"roster-sync/internal/config"
	"roster-sync/internal/metrics"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*RiotClient, *metrics.Metrics) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New()
	cfg := &config.Config{
		RiotAPIKey:     "test-key",
		AccountBaseURL: srv.URL + "/riot/account/v1/accounts/by-riot-id",
		LeagueBaseURL:  srv.URL + "/tft/league/v1/by-puuid/",
		MatchBaseURL:   srv.URL + "/tft/match/v1",
	}
	return NewRiotClient(cfg, m), m
}

func TestRiotClient_ResolveIdentity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))
		assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/hide%20on%20bush/KR1", r.URL.EscapedPath())
		w.Write([]byte(`{"puuid":"puuid-1","gameName":"hide on bush","tagLine":"KR1"}`))
	})

	puuid, err := client.ResolveIdentity(context.Background(), "hide on bush", "KR1")
	require.NoError(t, err)
	assert.Equal(t, "puuid-1", puuid)
}

func TestRiotClient_FetchStandings(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/league/v1/by-puuid/puuid-1", r.URL.Path)
		w.Write([]byte(`[{"queueType":"RANKED_TFT","tier":"GOLD","rank":"II","leaguePoints":40,"wins":3,"losses":9}]`))
	})

	entries, err := client.FetchStandings(context.Background(), "puuid-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, LeagueEntry{QueueType: "RANKED_TFT", Tier: "GOLD", Rank: "II", LeaguePoints: 40, Wins: 3, Losses: 9}, entries[0])
}

func TestRiotClient_FetchRecentMatchIDs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/match/v1/matches/by-puuid/puuid-1/ids", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("start"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		w.Write([]byte(`["KR_3","KR_2","KR_1"]`))
	})

	ids, err := client.FetchRecentMatchIDs(context.Background(), "puuid-1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"KR_3", "KR_2", "KR_1"}, ids)
}

func TestRiotClient_FetchMatchDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tft/match/v1/matches/KR_1", r.URL.Path)
		w.Write([]byte(`{
			"metadata": {"data_version": "6", "match_id": "KR_1", "participants": ["puuid-1", "puuid-2"]},
			"info": {
				"game_datetime": 1767225600000,
				"game_length": 2040.7,
				"queue_id": 1100,
				"tft_set_number": 13,
				"participants": [
					{"puuid": "puuid-2", "placement": 1, "level": 9},
					{"puuid": "puuid-1", "placement": 4, "level": 8, "time_eliminated": 1800.5,
					 "total_damage_to_players": 77, "traits": [{"name": "Rebel"}]}
				]
			}
		}`))
	})

	detail, err := client.FetchMatchDetail(context.Background(), "KR_1")
	require.NoError(t, err)

	assert.Equal(t, "6", detail.Metadata.DataVersion)
	assert.Equal(t, int64(1767225600000), detail.Info.GameDatetime)
	assert.Equal(t, 1100, detail.Info.QueueID)
	require.NotNil(t, detail.Info.SetNumber)
	assert.Equal(t, 13, *detail.Info.SetNumber)

	p := detail.Participant("puuid-1")
	require.NotNil(t, p)
	assert.Equal(t, 4, *p.Placement)
	assert.Equal(t, 77, p.TotalDamageToPlayers)
	assert.JSONEq(t, `[{"name":"Rebel"}]`, string(p.Traits))
	assert.Nil(t, p.Units)

	assert.Nil(t, detail.Participant("someone-else"))
}

func TestRiotClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		wantHint   *time.Duration
	}{
		{name: "throttled with hint", status: http.StatusTooManyRequests, retryAfter: "5", wantHint: durPtr(5 * time.Second)},
		{name: "throttled without hint", status: http.StatusTooManyRequests},
		{name: "throttled with date hint", status: http.StatusTooManyRequests, retryAfter: "Wed, 21 Oct 2026 07:28:00 GMT"},
		{name: "unavailable", status: http.StatusServiceUnavailable},
		{name: "not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"status":{"message":"nope"}}`))
			})

			_, err := client.FetchStandings(context.Background(), "puuid-1")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Contains(t, apiErr.Error(), "nope")

			hint, ok := apiErr.RetryAfter()
			if tt.wantHint == nil {
				assert.False(t, ok)
			} else {
				assert.True(t, ok)
				assert.Equal(t, *tt.wantHint, hint)
			}

			assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCounter(EndpointStandings, tt.status)))
		})
	}
}

func TestRiotClient_CanceledContext(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ResolveIdentity(ctx, "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func durPtr(d time.Duration) *time.Duration { return &d }
