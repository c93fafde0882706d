package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"roster-sync/internal/domain"
	"roster-sync/internal/repository"
	"roster-sync/internal/service"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type standingView struct {
	Tier     *string `json:"tier"`
	Division *string `json:"division"`
	Points   *int    `json:"points"`
	Wins     *int    `json:"wins"`
	Losses   *int    `json:"losses"`
}

type memberView struct {
	ID                 string       `json:"id"`
	MemberName         string       `json:"memberName"`
	GameName           string       `json:"gameName"`
	Tagline            string       `json:"tagline"`
	Puuid              *string      `json:"puuid"`
	Primary            standingView `json:"primary"`
	Secondary          standingView `json:"secondary"`
	Recent             []int        `json:"recent"`
	RecentRaw          *string      `json:"recentRaw"`
	WinRate            float64      `json:"winRate"`
	AveragePlacement   float64      `json:"averagePlacement"`
	SyncStatus         string       `json:"syncStatus"`
	SyncAttempts       int          `json:"syncAttempts"`
	LastSyncStartedAt  *time.Time   `json:"lastSyncStartedAt"`
	LastSyncFinishedAt *time.Time   `json:"lastSyncFinishedAt"`
	LastSyncError      *string      `json:"lastSyncError"`
	LastSyncedAt       *time.Time   `json:"lastSyncedAt"`
	CreatedAt          time.Time    `json:"createdAt"`
}

type participationView struct {
	MatchID              string          `json:"matchId"`
	Placement            *int            `json:"placement"`
	Level                *int            `json:"level"`
	TimeEliminated       *float64        `json:"timeEliminated"`
	TotalDamageToPlayers *int            `json:"totalDamageToPlayers"`
	Augments             json.RawMessage `json:"augments,omitempty"`
	Traits               json.RawMessage `json:"traits,omitempty"`
	Units                json.RawMessage `json:"units,omitempty"`
}

type memberDetailView struct {
	memberView
	Matches []participationView `json:"matches"`
}

type createMemberRequest struct {
	MemberName string `json:"memberName" validate:"required,max=64"`
	GameName   string `json:"gameName" validate:"required,max=32"`
	Tagline    string `json:"tagline" validate:"required,max=8"`
}

type syncLogView struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	MemberID   string    `json:"memberId"`
	Status     string    `json:"status"`
	Message    *string   `json:"message"`
	DurationMs *int64    `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSyncMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// a started sync always runs to completion, even if the client hangs up
	res := s.syncer.SyncMember(context.WithoutCancel(r.Context()), id, domain.SyncLogManual)

	if res.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
	}
	writeJSON(w, resultStatus(res), res)
}

// resultStatus maps a sync result onto the HTTP status of the response.
func resultStatus(res service.Result) int {
	switch {
	case res.OK:
		return http.StatusOK
	case res.Skipped:
		return http.StatusTooManyRequests
	case res.Status >= 400 && res.Status <= 599:
		return res.Status
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSyncBatch(w http.ResponseWriter, r *http.Request) {
	var req service.BatchRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative", nil)
		return
	}
	req.Trigger = domain.SyncLogManual

	result, err := s.batch.RunBatch(context.WithoutCancel(r.Context()), req)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("batch sync failed")
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list members")
		writeError(w, http.StatusInternalServerError, "failed to list members", nil)
		return
	}

	views := make([]memberView, len(members))
	for i, m := range members {
		views[i] = toMemberView(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": views})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := s.members.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("member_id", id).Msg("failed to load member")
		writeError(w, http.StatusInternalServerError, "failed to load member", nil)
		return
	}

	view := memberDetailView{
		memberView: toMemberView(detail.MemberSummary),
		Matches:    make([]participationView, len(detail.Matches)),
	}
	for i, p := range detail.Matches {
		view.Matches[i] = participationView{
			MatchID:              p.MatchID,
			Placement:            p.Placement,
			Level:                p.Level,
			TimeEliminated:       p.TimeEliminated,
			TotalDamageToPlayers: p.TotalDamageToPlayers,
			Augments:             p.Augments,
			Traits:               p.Traits,
			Units:                p.Units,
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Request validation failed", validationDetails(err))
		return
	}

	member, err := s.members.Create(r.Context(), repository.NewMember{
		MemberName: req.MemberName,
		GameName:   req.GameName,
		Tagline:    req.Tagline,
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to create member")
		writeError(w, http.StatusInternalServerError, "failed to create member", nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "memberId": member.ID})
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.members.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("member_id", id).Msg("failed to delete member")
		writeError(w, http.StatusInternalServerError, "failed to delete member", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "memberId": id})
}

func (s *Server) handleListSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	entries, err := s.members.SyncLogs(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list sync logs")
		writeError(w, http.StatusInternalServerError, "failed to list sync logs", nil)
		return
	}

	views := make([]syncLogView, len(entries))
	for i, e := range entries {
		views[i] = syncLogView{
			ID:         e.ID,
			Type:       string(e.Type),
			MemberID:   e.MemberID,
			Status:     string(e.Status),
			Message:    e.Message,
			DurationMs: e.DurationMs,
			CreatedAt:  e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": views})
}

func toMemberView(m service.MemberSummary) memberView {
	return memberView{
		ID:                 m.ID,
		MemberName:         m.MemberName,
		GameName:           m.GameName,
		Tagline:            m.Tagline,
		Puuid:              m.Puuid,
		Primary:            toStandingView(m.Primary),
		Secondary:          toStandingView(m.Secondary),
		Recent:             m.RecentPlacements,
		RecentRaw:          m.Recent,
		WinRate:            m.WinRate,
		AveragePlacement:   m.AveragePlacement,
		SyncStatus:         string(m.SyncStatus),
		SyncAttempts:       m.SyncAttempts,
		LastSyncStartedAt:  m.LastSyncStartedAt,
		LastSyncFinishedAt: m.LastSyncFinishedAt,
		LastSyncError:      m.LastSyncError,
		LastSyncedAt:       m.LastSyncedAt,
		CreatedAt:          m.CreatedAt,
	}
}

func toStandingView(s domain.Standing) standingView {
	return standingView{
		Tier:     s.Tier,
		Division: s.Division,
		Points:   s.Points,
		Wins:     s.Wins,
		Losses:   s.Losses,
	}
}

// decodeOptionalJSON accepts an empty body as the zero value.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details []fieldError) {
	body := map[string]any{"ok": false, "error": message}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
