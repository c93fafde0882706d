package service

import (
	"context"
	"roster-sync/internal/constants"
	"roster-sync/internal/domain"
	"roster-sync/internal/repository"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const detailMatchLimit = 20

type MemberService struct {
	members *repository.MemberRepository
	matches *repository.MatchRepository
	logs    *repository.SyncLogRepository
	logger  zerolog.Logger
}

func NewMemberService(members *repository.MemberRepository, matches *repository.MatchRepository, logs *repository.SyncLogRepository, logger zerolog.Logger) *MemberService {
	return &MemberService{members: members, matches: matches, logs: logs, logger: logger}
}

// MemberSummary is a member with its rolling record decoded.
type MemberSummary struct {
	domain.Member
	RecentPlacements []int
	WinRate          float64
	AveragePlacement float64
}

type MemberDetail struct {
	MemberSummary
	Matches []domain.MatchParticipant
}

func (s *MemberService) List(ctx context.Context) ([]MemberSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]MemberSummary, len(members))
	for i, m := range members {
		result[i] = s.summarize(m)
	}
	return result, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*MemberDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var member *domain.Member
	var matches []domain.MatchParticipant

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		member, err = s.members.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matches.ListByMember(gctx, id, detailMatchLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &MemberDetail{
		MemberSummary: s.summarize(*member),
		Matches:       matches,
	}, nil
}

func (s *MemberService) Create(ctx context.Context, in repository.NewMember) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	in.MemberName = strings.TrimSpace(in.MemberName)
	in.GameName = strings.TrimSpace(in.GameName)
	in.Tagline = strings.TrimPrefix(strings.TrimSpace(in.Tagline), "#")
	return s.members.Create(ctx, in)
}

func (s *MemberService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.members.Delete(ctx, id)
}

func (s *MemberService) SyncLogs(ctx context.Context, limit int) ([]domain.SyncLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.DefaultSyncLogLimit
	}
	if limit > constants.MaxSyncLogLimit {
		limit = constants.MaxSyncLogLimit
	}
	return s.logs.List(ctx, limit)
}

func (s *MemberService) summarize(m domain.Member) MemberSummary {
	summary := MemberSummary{Member: m, RecentPlacements: []int{}}
	if m.Recent == nil {
		return summary
	}

	if placements, err := domain.DecodeRecent(*m.Recent); err == nil {
		summary.RecentPlacements = placements
		summary.AveragePlacement = domain.AveragePlacement(placements)
	}

	outcomes, err := domain.DecodeOutcomes(*m.Recent, constants.LobbySize)
	if err != nil {
		s.logger.Warn().Err(err).Str("member_id", m.ID).Msg("unreadable rolling record")
		return summary
	}
	summary.WinRate = domain.WinRate(outcomes)
	return summary
}
