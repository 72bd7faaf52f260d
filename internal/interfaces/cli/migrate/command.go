package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookwell-inc/bookwell/internal/infrastructure/migration"
	"github.com/bookwell-inc/bookwell/internal/interfaces/bootstrap"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

var (
	env         string
	scriptsPath string
	name        string
	steps       int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including running migrations, checking status, and creating new migration files.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVar(&scriptsPath, "scripts", migration.DefaultScriptsPath, "Directory for new migration scripts")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new SQL migration",
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// open loads the runtime, connects the database when withDB is set and
// returns the goose strategy for its dialect.
func open(withDB bool) (*bootstrap.Runtime, *migration.GooseStrategy, logger.Interface, error) {
	rt, err := bootstrap.Load(env)
	if err != nil {
		return nil, nil, nil, err
	}

	if withDB {
		if err := rt.OpenDatabase(); err != nil {
			return nil, nil, nil, err
		}
	}

	log := rt.Log.Named("migration")
	strategy := migration.NewGooseStrategy(migration.DialectFor(&rt.Config.Database), scriptsPath, log)
	return rt, strategy, log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	rt, strategy, log, err := open(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Infow("running up migrations", "environment", env)

	if err := strategy.Migrate(rt.DB); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	rt, strategy, log, err := open(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Infow("running down migrations", "environment", env, "steps", steps)

	if err := strategy.MigrateDown(rt.DB, steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, strategy, log, err := open(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	current, err := strategy.GetVersion(rt.DB)
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Dialect:         %s\n", migration.DialectFor(&rt.Config.Database))
	fmt.Fprintf(out, "  Current Version: %d\n", current)

	if err := strategy.Status(rt.DB); err != nil {
		log.Errorw("failed to get detailed status", "error", err)
		return fmt.Errorf("failed to get detailed status: %w", err)
	}

	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	rt, strategy, log, err := open(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := strategy.Create(name); err != nil {
		log.Errorw("failed to create migration", "error", err)
		return fmt.Errorf("failed to create migration: %w", err)
	}

	log.Infow("migration created", "name", name, "path", scriptsPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created in %s\n", name, scriptsPath)
	return nil
}
