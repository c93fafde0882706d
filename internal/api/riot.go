package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"roster-sync/internal/config"
	"roster-sync/internal/metrics"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	EndpointIdentity  = "identity"
	EndpointStandings = "standings"
	EndpointMatchIDs  = "match_ids"
	EndpointMatch     = "match"
)

const maxErrorBody = 512

// APIError is returned for every non-2xx response of the ranked API.
type APIError struct {
	Status            int
	RetryAfterSeconds *int
	Body              string
	URL               string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Riot API error (%d): %s", e.Status, e.Body)
}

// RetryAfter reports the server supplied Retry-After hint, if any.
func (e *APIError) RetryAfter() (time.Duration, bool) {
	if e.RetryAfterSeconds == nil {
		return 0, false
	}
	return time.Duration(*e.RetryAfterSeconds) * time.Second, true
}

type RiotClient struct {
	apiKey         string
	accountBaseURL string
	leagueBaseURL  string
	matchBaseURL   string
	client         *fasthttp.Client
	metrics        *metrics.Metrics
}

func NewRiotClient(cfg *config.Config, m *metrics.Metrics) *RiotClient {
	return &RiotClient{
		apiKey:         cfg.RiotAPIKey,
		accountBaseURL: strings.TrimRight(cfg.AccountBaseURL, "/"),
		leagueBaseURL:  strings.TrimRight(cfg.LeagueBaseURL, "/"),
		matchBaseURL:   strings.TrimRight(cfg.MatchBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		metrics: m,
	}
}

// ResolveIdentity turns a game name and tagline into the account puuid.
func (c *RiotClient) ResolveIdentity(ctx context.Context, gameName, tagline string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s", c.accountBaseURL, url.PathEscape(gameName), url.PathEscape(tagline))
	account, err := doRequest[AccountResponse](ctx, c, EndpointIdentity, u)
	if err != nil {
		return "", err
	}
	if account.Puuid == "" {
		return "", fmt.Errorf("account %s#%s resolved without puuid", gameName, tagline)
	}
	return account.Puuid, nil
}

// FetchStandings returns one entry per ranked queue the account is placed in.
// Queues the account is unranked in are simply absent.
func (c *RiotClient) FetchStandings(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("%s/%s", c.leagueBaseURL, url.PathEscape(puuid))
	entries, err := doRequest[[]LeagueEntry](ctx, c, EndpointStandings, u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

// FetchRecentMatchIDs returns up to count match ids, most recent first.
func (c *RiotClient) FetchRecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/matches/by-puuid/%s/ids?start=0&count=%d", c.matchBaseURL, url.PathEscape(puuid), count)
	ids, err := doRequest[[]string](ctx, c, EndpointMatchIDs, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) FetchMatchDetail(ctx context.Context, matchID string) (*MatchResponse, error) {
	u := fmt.Sprintf("%s/matches/%s", c.matchBaseURL, url.PathEscape(matchID))
	return doRequest[MatchResponse](ctx, c, EndpointMatch, u)
}

func doRequest[T any](ctx context.Context, client *RiotClient, endpoint, rawURL string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)
	req.Header.Set("Accept", "application/json")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.Do(req, resp)
	}
	if err != nil {
		client.observe(endpoint, 0)
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}

	status := resp.StatusCode()
	client.observe(endpoint, status)

	if status < 200 || status > 299 {
		return nil, newAPIError(resp, rawURL)
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return &result, nil
}

func (c *RiotClient) observe(endpoint string, status int) {
	if c.metrics != nil {
		c.metrics.ObserveUpstream(endpoint, status)
	}
}

func newAPIError(resp *fasthttp.Response, rawURL string) *APIError {
	body := string(resp.Body())
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{
		Status:            resp.StatusCode(),
		RetryAfterSeconds: parseRetryAfter(string(resp.Header.Peek("Retry-After"))),
		Body:              body,
		URL:               rawURL,
	}
}

// parseRetryAfter accepts the delay-seconds form of the header. Anything
// else is treated as absent.
func parseRetryAfter(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return nil
	}
	return &secs
}

type AccountResponse struct {
	Puuid    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	DataVersion  string   `json:"data_version"`
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	// GameDatetime is in epoch milliseconds.
	GameDatetime int64              `json:"game_datetime"`
	GameLength   float64            `json:"game_length"`
	QueueID      int                `json:"queue_id"`
	SetNumber    *int               `json:"tft_set_number"`
	Participants []MatchParticipant `json:"participants"`
}

type MatchParticipant struct {
	Puuid                string          `json:"puuid"`
	Placement            *int            `json:"placement"`
	Level                int             `json:"level"`
	TimeEliminated       float64         `json:"time_eliminated"`
	TotalDamageToPlayers int             `json:"total_damage_to_players"`
	Augments             json.RawMessage `json:"augments"`
	Traits               json.RawMessage `json:"traits"`
	Units                json.RawMessage `json:"units"`
}

// Participant returns the entry for puuid, or nil when the account is not
// part of the match.
func (m *MatchResponse) Participant(puuid string) *MatchParticipant {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].Puuid == puuid {
			return &m.Info.Participants[i]
		}
	}
	return nil
}
