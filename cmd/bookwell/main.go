package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bookwell-inc/bookwell/internal/interfaces/cli/migrate"
	"github.com/bookwell-inc/bookwell/internal/interfaces/cli/server"
	"github.com/bookwell-inc/bookwell/internal/interfaces/cli/signals"
	"github.com/bookwell-inc/bookwell/internal/interfaces/cli/worker"
	"github.com/bookwell-inc/bookwell/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "bookwell",
		Short:   "Bookwell - booking and payment backend",
		Long:    `Bookwell serves slot availability, reconciles Stripe payments into bookings and runs scheduled maintenance.`,
		Version: version.String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		signals.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
