package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walletwise/walletwise/internal/application/subscription/usecases"
	"github.com/walletwise/walletwise/internal/infrastructure/database"
	"github.com/walletwise/walletwise/internal/interfaces/cli/bootstrap"
	"github.com/walletwise/walletwise/internal/shared/constants"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Expire ended trials once",
		Long:  `Mark every TRIAL whose end date has passed as EXPIRED and grant its user a FREE subscription. Exits non-zero when the expired trials cannot be listed.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.LoadEnvironment(env, configPath)
	if err != nil {
		return err
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.New(ctx, cfg, database.Get(), nil, log)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer container.Close()

	result, err := container.ExpireTrials().Run(ctx)
	if err != nil {
		return fmt.Errorf("trial reconciliation failed: %w", err)
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, result *usecases.ReconciliationResult) {
	fmt.Fprintf(w, "\nTrial Reconciliation:\n")
	fmt.Fprintf(w, "  Run ID:       %s\n", result.RunID)
	fmt.Fprintf(w, "  Found:        %d\n", result.Found)
	fmt.Fprintf(w, "  Expired:      %d\n", result.Expired)
	fmt.Fprintf(w, "  FREE granted: %d\n", result.FreeGranted)
	fmt.Fprintf(w, "  Skipped:      %d\n", result.Skipped)
	fmt.Fprintf(w, "  Failed:       %d\n", result.Failed)
	fmt.Fprintf(w, "  Duration:     %s\n", result.FinishedAt.Sub(result.StartedAt))

	if result.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d trial(s) failed and will be retried on the next run\n", result.Failed)
	}
}
