package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quotagate/quotagate/internal/interfaces/cli/migrate"
	"github.com/quotagate/quotagate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quotagate",
		Short: "Quotagate - entitlement-aware API rate limiting service",
		Long:  `Quotagate enforces per-user hourly, daily, and subscription-anchored monthly request budgets derived from subscription entitlements.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
