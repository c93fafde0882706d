package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"roster-sync/internal/api"
	"roster-sync/internal/config"
	"roster-sync/internal/constants"
	"roster-sync/internal/domain"
	"roster-sync/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

// Orchestrator performs a single sync pass for one member. It never retries;
// every failure is returned to the Engine.
type Orchestrator struct {
	client  RankedAPI
	members MemberStore
	matches MatchStore
	cfg     config.SyncConfig
	logger  zerolog.Logger

	sleep Sleeper
	now   func() time.Time
}

func NewOrchestrator(client RankedAPI, members MemberStore, matches MatchStore, cfg *config.Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		members: members,
		matches: matches,
		cfg:     cfg.Sync,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

func (o *Orchestrator) Pass(ctx context.Context, memberID string, cooldown time.Duration) error {
	log := o.logger.With().Str("member_id", memberID).Logger()

	member, err := o.members.Get(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return newSyncError(KindNotFound, http.StatusNotFound, err, "Member not found")
	}
	if err != nil {
		return newSyncError(KindPersistence, http.StatusInternalServerError, err, "failed to load member: %v", err)
	}

	if err := o.checkCooldown(member, cooldown); err != nil {
		return err
	}

	puuid := ""
	if member.Puuid != nil {
		puuid = *member.Puuid
	}
	if puuid == "" {
		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		puuid, err = o.client.ResolveIdentity(apiCtx, member.GameName, member.Tagline)
		cancel()
		if err != nil {
			return err
		}
		log.Debug().Str("puuid", puuid).Msg("resolved account")
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	entries, err := o.client.FetchStandings(apiCtx, puuid)
	cancel()
	if err != nil {
		return err
	}
	primary, secondary := o.pickStandings(entries)

	n, err := o.members.UpdateStanding(ctx, memberID, puuid, primary, secondary)
	if err != nil {
		return newSyncError(KindPersistence, http.StatusInternalServerError, err, "failed to update member standing: %v", err)
	}
	if n == 0 {
		return newSyncError(KindPersistenceConflict, http.StatusConflict, nil, "Update affected 0 rows for member %s", memberID)
	}

	placements, err := o.syncMatches(ctx, log, memberID, puuid)
	if err != nil {
		return err
	}

	if len(placements) > 0 {
		if len(placements) > constants.RecentResultsLength {
			placements = placements[:constants.RecentResultsLength]
		}
		n, err := o.members.UpdateRecent(ctx, memberID, domain.EncodeRecent(placements))
		switch {
		case err != nil:
			log.Error().Err(err).Msg("failed to update rolling record")
		case n == 0:
			log.Warn().Msg("rolling record update affected 0 rows")
		}
	}

	return nil
}

func (o *Orchestrator) checkCooldown(member *domain.Member, cooldown time.Duration) error {
	if member.LastSyncedAt == nil || cooldown <= 0 {
		return nil
	}
	elapsed := o.now().Sub(*member.LastSyncedAt)
	if elapsed >= cooldown {
		return nil
	}

	remaining := time.Duration(math.Ceil((cooldown - elapsed).Seconds())) * time.Second
	return &SyncError{
		Kind:          KindCooldown,
		Status:        http.StatusTooManyRequests,
		RetryAfter:    remaining,
		HasRetryAfter: true,
		Message:       fmt.Sprintf("Synced recently (%.2fm ago), retry in %s", elapsed.Minutes(), remaining),
	}
}

// pickStandings maps ladder entries onto the two tracked queue variants. A
// variant without an entry stays all-nil.
func (o *Orchestrator) pickStandings(entries []api.LeagueEntry) (primary, secondary domain.Standing) {
	for _, e := range entries {
		switch e.QueueType {
		case o.cfg.PrimaryQueue:
			primary = toStanding(e)
		case o.cfg.SecondaryQueue:
			secondary = toStanding(e)
		}
	}
	return primary, secondary
}

func toStanding(e api.LeagueEntry) domain.Standing {
	tier, division := e.Tier, e.Rank
	points, wins, losses := e.LeaguePoints, e.Wins, e.Losses
	return domain.Standing{
		Tier:     &tier,
		Division: &division,
		Points:   &points,
		Wins:     &wins,
		Losses:   &losses,
	}
}

// syncMatches stores the member's most recent matches in the order returned
// by the ranked API and collects their placements. API failures abort the
// pass; persistence failures only skip the match.
func (o *Orchestrator) syncMatches(ctx context.Context, log zerolog.Logger, memberID, puuid string) ([]int, error) {
	if o.cfg.MatchCount == 0 {
		return nil, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	ids, err := o.client.FetchRecentMatchIDs(apiCtx, puuid, o.cfg.MatchCount)
	cancel()
	if err != nil {
		return nil, err
	}

	placements := make([]int, 0, len(ids))
	for _, matchID := range ids {
		if err := o.sleep(ctx, o.cfg.MatchDelay); err != nil {
			return nil, err
		}

		apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		detail, err := o.client.FetchMatchDetail(apiCtx, matchID)
		cancel()
		if err != nil {
			return nil, err
		}

		match := toMatch(matchID, detail)
		if err := o.matches.UpsertMatch(ctx, match); err != nil {
			log.Error().Err(err).Str("match_id", match.MatchID).Msg("match upsert error")
			continue
		}

		part := detail.Participant(puuid)
		if part == nil {
			log.Debug().Str("match_id", match.MatchID).Msg("member not among match participants")
			continue
		}

		placement := constants.LobbySize
		if part.Placement != nil {
			placement = *part.Placement
		}
		placements = append(placements, placement)

		if err := o.matches.UpsertParticipant(ctx, toParticipant(match.MatchID, memberID, puuid, part)); err != nil {
			log.Error().Err(err).Str("match_id", match.MatchID).Msg("participant upsert error")
		}
	}

	log.Debug().Int("matches", len(ids)).Ints("placements", placements).Msg("matches synced")
	return placements, nil
}

func toMatch(requestedID string, detail *api.MatchResponse) *domain.Match {
	matchID := detail.Metadata.MatchID
	if matchID == "" {
		matchID = requestedID
	}

	m := &domain.Match{MatchID: matchID}
	if v := detail.Metadata.DataVersion; v != "" {
		m.DataVersion = &v
	}
	if detail.Info.GameDatetime > 0 {
		t := time.UnixMilli(detail.Info.GameDatetime).UTC()
		m.GameDatetime = &t
	}
	if q := detail.Info.QueueID; q != 0 {
		m.QueueID = &q
	}
	m.SetNumber = detail.Info.SetNumber
	if detail.Info.GameLength > 0 {
		secs := int(math.Round(detail.Info.GameLength))
		m.GameLengthSeconds = &secs
	}
	return m
}

func toParticipant(matchID, memberID, puuid string, p *api.MatchParticipant) *domain.MatchParticipant {
	level := p.Level
	eliminated := p.TimeEliminated
	damage := p.TotalDamageToPlayers
	return &domain.MatchParticipant{
		MatchID:              matchID,
		MemberID:             memberID,
		Puuid:                puuid,
		Placement:            p.Placement,
		Level:                &level,
		TimeEliminated:       &eliminated,
		TotalDamageToPlayers: &damage,
		Augments:             p.Augments,
		Traits:               p.Traits,
		Units:                p.Units,
	}
}
