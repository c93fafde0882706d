package fx

import (
	"database/sql"
	"roster-sync/internal/api"
	"roster-sync/internal/config"
	"roster-sync/internal/database"
	"roster-sync/internal/db"
	"roster-sync/internal/logger"
	"roster-sync/internal/metrics"
	"roster-sync/internal/repository"
	"roster-sync/internal/server"
	"roster-sync/internal/service"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideRankedAPI(client *api.RiotClient) service.RankedAPI { return client }

func ProvideSyncStateStore(r *repository.MemberRepository) service.SyncStateStore { return r }

func ProvideMemberStore(r *repository.MemberRepository) service.MemberStore { return r }

func ProvideStaleMemberLister(r *repository.MemberRepository) service.StaleMemberLister { return r }

func ProvideMatchStore(r *repository.MatchRepository) service.MatchStore { return r }

func ProvideSyncLogStore(r *repository.SyncLogRepository) service.SyncLogStore { return r }

func ProvideMemberSyncer(s *service.SyncService) service.MemberSyncer { return s }

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	metrics.Module,
	// repos
	fx.Provide(repository.NewMemberRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewSyncLogRepository),
	fx.Provide(
		ProvideSyncStateStore,
		ProvideMemberStore,
		ProvideStaleMemberLister,
		ProvideMatchStore,
		ProvideSyncLogStore,
	),
	// api client
	fx.Provide(api.NewRiotClient),
	fx.Provide(ProvideRankedAPI),
	// svc
	fx.Provide(service.NewRetryPolicy),
	fx.Provide(service.NewEngine),
	fx.Provide(service.NewOrchestrator),
	fx.Provide(service.NewSyncService),
	fx.Provide(ProvideMemberSyncer),
	fx.Provide(service.NewBatchCoordinator),
	fx.Provide(service.NewMemberService),
	// server
	fx.Provide(server.NewServer),
)
