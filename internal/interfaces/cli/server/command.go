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

	"github.com/walletwise/walletwise/internal/infrastructure/config"
	"github.com/walletwise/walletwise/internal/infrastructure/database"
	"github.com/walletwise/walletwise/internal/infrastructure/migration"
	"github.com/walletwise/walletwise/internal/infrastructure/pubsub"
	"github.com/walletwise/walletwise/internal/infrastructure/scheduler"
	"github.com/walletwise/walletwise/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/walletwise/walletwise/internal/interfaces/http"
	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/goroutine"
	"github.com/walletwise/walletwise/internal/shared/logger"
	"github.com/walletwise/walletwise/internal/shared/version"
)

const shutdownTimeout = 30 * time.Second

var (
	env         string
	configPath  string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the WalletWise HTTP server together with the trial expiry scheduler and the subscription event audit subscriber.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.LoadEnvironment(env, configPath)
	if err != nil {
		return err
	}

	log.Infow("starting server",
		"environment", env,
		"version", version.String(),
		"auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := migration.NewManager(&cfg.Migration, cfg.Database.Driver, log).Migrate(database.Get()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.New(ctx, cfg, database.Get(), nil, log)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Errorw("failed to close container", "error", err)
		}
	}()

	sched, err := startScheduler(ctx, cfg, container, log)
	if err != nil {
		return err
	}
	defer func() {
		// The delayed start must observe cancellation before the scheduler stops.
		stop()
		if err := sched.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	if subscriber := container.EventSubscriber(); subscriber != nil {
		startAuditSubscriber(ctx, subscriber, log)
	}

	sqlDB, err := database.Get().DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	router := httpRouter.NewRouter(httpRouter.RouterDeps{
		Service:        container.Service(),
		DB:             sqlDB,
		MetricsHandler: container.MetricsHandler(),
		Clock:          container.Clock(),
		Logger:         log.Named("http"),
	})
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

// startScheduler registers the trial expiry job and starts the scheduler
// after the configured delay so the first tick does not race startup.
func startScheduler(ctx context.Context, cfg *config.Config, container *bootstrap.Container, log logger.Interface) (*scheduler.SchedulerManager, error) {
	sched, err := scheduler.NewSchedulerManager(container.Zone(), log.Named("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.RegisterTrialExpiryJob(cfg.Scheduler.TrialExpiryCron, container.ExpireTrials()); err != nil {
		return nil, fmt.Errorf("failed to register trial expiry job: %w", err)
	}

	delay := time.Duration(cfg.Scheduler.StartupDelaySeconds) * time.Second
	sched.StartAfter(ctx, delay)

	log.Infow("trial expiry job scheduled",
		"cron", cfg.Scheduler.TrialExpiryCron,
		"timezone", container.Zone().Name(),
		"startup_delay", delay)

	return sched, nil
}

func startAuditSubscriber(ctx context.Context, subscriber pubsub.SubscriptionEventSubscriber, log logger.Interface) {
	auditLog := log.Named("subscription-audit")
	goroutine.SafeGo(log, "subscription-event-subscriber", func() {
		if err := subscriber.Subscribe(ctx, pubsub.NewAuditLogHandler(auditLog)); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("subscription event subscriber stopped", "error", err)
		}
	})
}
