package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/complaint-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/complaint-management/internal/notification/postgres"
	"github.com/frahmantamala/complaint-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run outside the HTTP server`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification purge sweeper",
	Long:  `Periodically delete notifications older than the configured retention`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var purgeOnce bool

func startNotificationWorker() {
	config, err := loadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Env, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		log.Error("failed to init db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := initGorm(db)
	if err != nil {
		log.Error("failed to init gorm", "error", err)
		os.Exit(1)
	}

	service := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), config.Notification.Purge.Retention, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if purgeOnce {
		if _, err := service.PurgeExpired(ctx, time.Now()); err != nil {
			log.Error("purge failed", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("notification worker is running. Press Ctrl+C to stop.",
		"interval", config.Notification.Purge.Interval,
		"retention", config.Notification.Purge.Retention)

	notification.NewSweeper(service, config.Notification.Purge.Interval, log).Run(ctx)

	log.Info("notification worker stopped")
}

func init() {
	notificationWorkerCmd.Flags().BoolVar(&purgeOnce, "once", false, "Purge once and exit")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
