package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/walletwise/walletwise/internal/interfaces/cli/migrate"
	"github.com/walletwise/walletwise/internal/interfaces/cli/reconcile"
	"github.com/walletwise/walletwise/internal/interfaces/cli/server"
	"github.com/walletwise/walletwise/internal/interfaces/cli/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walletwise",
		Short: "WalletWise subscription entitlement engine",
		Long:  `WalletWise decides which features and quotas each user gets from their subscription history, and keeps that history consistent as trials end.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		reconcile.NewCommand(),
		migrate.NewCommand(),
		version.NewCommand(),
	)

	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
