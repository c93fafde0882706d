package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"roster-sync/internal/config"
	"roster-sync/internal/constants"
	"roster-sync/internal/domain"
	fxmodules "roster-sync/internal/fx"
	"roster-sync/internal/scheduler"
	"roster-sync/internal/server"
	"roster-sync/internal/service"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roster-sync",
		Short:         "Keeps a roster of players in sync with the ranked API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server and the scheduled sweep",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		newSyncCmd(),
		newPruneCmd(),
	)
	return root
}

func serve() error {
	app := fx.New(
		fxmodules.Module,
		scheduler.Module,
		fx.Invoke(runServer),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: srv.Routes(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

type cliDeps struct {
	fx.In

	Syncer *service.SyncService
	Batch  *service.BatchCoordinator
	DB     *sql.DB
	Logger zerolog.Logger
}

// withApp starts the dependency graph without the HTTP server or scheduler,
// runs fn, and tears everything down again.
func withApp(ctx context.Context, fn func(ctx context.Context, deps cliDeps) error) error {
	var deps cliDeps
	app := fx.New(
		fxmodules.Module,
		fx.NopLogger,
		fx.Populate(&deps),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	runErr := fn(ctx, deps)

	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		deps.Logger.Warn().Err(err).Msg("app stop failed")
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Warn().Err(err).Msg("error closing database connection")
	}
	return runErr
}

func newSyncCmd() *cobra.Command {
	var (
		memberID string
		all      bool
		limit    int
		cursor   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync one member, one batch, or every stale member",
		RunE: func(cmd *cobra.Command, args []string) error {
			if memberID != "" && all {
				return errors.New("--member and --all are mutually exclusive")
			}

			return withApp(cmd.Context(), func(ctx context.Context, deps cliDeps) error {
				switch {
				case memberID != "":
					res := deps.Syncer.SyncMember(ctx, memberID, domain.SyncLogManual)
					if err := printJSON(cmd, res); err != nil {
						return err
					}
					if !res.OK && !res.Skipped {
						return fmt.Errorf("sync failed: %s", res.Error)
					}
					return nil
				case all:
					results, err := deps.Batch.RunAll(ctx, domain.SyncLogCron)
					if printErr := printJSON(cmd, results); printErr != nil {
						return printErr
					}
					return err
				default:
					res, err := deps.Batch.RunBatch(ctx, service.BatchRequest{
						Limit:   limit,
						Cursor:  cursor,
						Trigger: domain.SyncLogManual,
					})
					if err != nil {
						return err
					}
					return printJSON(cmd, res)
				}
			})
		},
	}

	cmd.Flags().StringVar(&memberID, "member", "", "sync a single member by id")
	cmd.Flags().BoolVar(&all, "all", false, "page through every stale member as a scheduled sweep")
	cmd.Flags().IntVar(&limit, "limit", 0, "batch size, defaults to SYNC_BATCH_SIZE")
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume a batch after this member id")
	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-logs",
		Short: "Delete sync audit entries past their retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, deps cliDeps) error {
				n, err := deps.Syncer.PruneLogs(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int64{"pruned": n})
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
