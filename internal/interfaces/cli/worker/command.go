package worker

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bookwell-inc/bookwell/internal/application/maintenance"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/scheduler"
	"github.com/bookwell-inc/bookwell/internal/interfaces/bootstrap"
	"github.com/bookwell-inc/bookwell/internal/shared/version"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the background job scheduler",
		Long:  `Run scheduled maintenance: completing bookings whose slot has ended and pruning the webhook ledger.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

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

	log := rt.Log.Named("worker")
	log.Infow("starting worker", "environment", env, "version", version.String())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.OpenDatabase(); err != nil {
		return err
	}
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

	completePastBookings := maintenance.NewCompletePastBookingsUseCase(
		repos.Bookings,
		signals.Dispatcher,
		0,
		rt.Log.Named("complete-bookings"),
	)
	pruneWebhookEvents := maintenance.NewPruneWebhookEventsUseCase(
		repos.WebhookEvents,
		rt.Config.Scheduler.WebhookRetention(),
		rt.Log.Named("prune-webhook-events"),
	)

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterBookingJobs(completePastBookings, rt.Config.Scheduler.CompletionInterval()); err != nil {
		return fmt.Errorf("failed to register booking jobs: %w", err)
	}
	if err := manager.RegisterLedgerJobs(pruneWebhookEvents); err != nil {
		return fmt.Errorf("failed to register ledger jobs: %w", err)
	}

	manager.Start()
	log.Infow("worker started")

	<-ctx.Done()
	log.Infow("shutting down worker")

	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}

	log.Infow("worker stopped")
	return nil
}
