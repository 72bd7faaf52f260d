package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bookwell-inc/bookwell/internal/infrastructure/migration"
	"github.com/bookwell-inc/bookwell/internal/interfaces/bootstrap"
	httpRouter "github.com/bookwell-inc/bookwell/internal/interfaces/http"
	"github.com/bookwell-inc/bookwell/internal/shared/version"
)

const shutdownTimeout = 30 * time.Second

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Bookwell HTTP server: Stripe webhooks, availability and client linking.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply pending database migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap.Load(env)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Log.Errorw("failed to close runtime", "error", err)
		}
	}()

	cfg := rt.Config
	log := rt.Log.Named("server")
	log.Infow("starting server",
		"environment", env,
		"version", version.String(),
		"auto_migrate", autoMigrate,
	)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := rt.OpenDatabase(); err != nil {
		return err
	}

	if err := handleMigrations(rt); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.OpenRedis(ctx); err != nil {
		return err
	}

	repos := bootstrap.NewRepositories(rt.DB, rt.Log)
	signals, err := bootstrap.StartSignals(rt, repos)
	if err != nil {
		return err
	}
	defer func() {
		if err := signals.Stop(); err != nil {
			log.Errorw("failed to stop signal dispatcher", "error", err)
		}
	}()

	container := httpRouter.NewContainer(rt, repos, signals)
	container.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      container.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server listening",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(rt *bootstrap.Runtime) error {
	log := rt.Log.Named("migration")

	if autoMigrate {
		if !rt.Config.Server.IsDebug() {
			log.Warnw("auto-migration is enabled outside debug mode")
		}
		manager := migration.NewManager(&rt.Config.Database, log)
		if err := manager.Migrate(rt.DB); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed", "strategy", manager.GetStrategy().GetName())
		return nil
	}

	strategy := migration.NewGooseStrategy(
		migration.DialectFor(&rt.Config.Database),
		migration.DefaultScriptsPath,
		log,
	)
	current, err := strategy.GetVersion(rt.DB)
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", current)
	return nil
}
