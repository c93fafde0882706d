package server

import (
	"net/http"
	"roster-sync/internal/config"
	"roster-sync/internal/constants"
	"roster-sync/internal/metrics"
	"roster-sync/internal/middleware"
	"roster-sync/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Server struct {
	syncer   *service.SyncService
	batch    *service.BatchCoordinator
	members  *service.MemberService
	metrics  *metrics.Metrics
	validate *validator.Validate
	cfg      *config.Config
	logger   zerolog.Logger
}

func NewServer(
	syncer *service.SyncService,
	batch *service.BatchCoordinator,
	members *service.MemberService,
	m *metrics.Metrics,
	cfg *config.Config,
	logger zerolog.Logger,
) *Server {
	return &Server{
		syncer:   syncer,
		batch:    batch,
		members:  members,
		metrics:  m,
		validate: newValidator(),
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(c.Handler)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.With(chimw.Timeout(constants.RequestTimeout)).Get("/", s.handleListMembers)
			r.With(chimw.Timeout(constants.RequestTimeout)).Get("/{id}", s.handleGetMember)
			r.Post("/{id}/sync", s.handleSyncMember)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(s.cfg.AdminToken, s.logger))

			r.Post("/sync-batch", s.handleSyncBatch)
			r.Post("/members", s.handleCreateMember)
			r.Delete("/members/{id}", s.handleDeleteMember)
			r.Get("/sync-logs", s.handleListSyncLogs)
		})
	})

	return r
}
