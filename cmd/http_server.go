package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/complaint-management/internal"
	"github.com/frahmantamala/complaint-management/internal/activitylog"
	activityPostgres "github.com/frahmantamala/complaint-management/internal/activitylog/postgres"
	"github.com/frahmantamala/complaint-management/internal/auth"
	authPostgres "github.com/frahmantamala/complaint-management/internal/auth/postgres"
	"github.com/frahmantamala/complaint-management/internal/complaint"
	complaintPostgres "github.com/frahmantamala/complaint-management/internal/complaint/postgres"
	"github.com/frahmantamala/complaint-management/internal/core/events"
	"github.com/frahmantamala/complaint-management/internal/department"
	departmentPostgres "github.com/frahmantamala/complaint-management/internal/department/postgres"
	"github.com/frahmantamala/complaint-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/complaint-management/internal/notification/postgres"
	"github.com/frahmantamala/complaint-management/internal/push"
	pushPostgres "github.com/frahmantamala/complaint-management/internal/push/postgres"
	"github.com/frahmantamala/complaint-management/internal/role"
	rolePostgres "github.com/frahmantamala/complaint-management/internal/role/postgres"
	"github.com/frahmantamala/complaint-management/internal/task"
	taskPostgres "github.com/frahmantamala/complaint-management/internal/task/postgres"
	"github.com/frahmantamala/complaint-management/internal/transport"
	"github.com/frahmantamala/complaint-management/internal/transport/middleware"
	"github.com/frahmantamala/complaint-management/internal/transport/openapi"
	"github.com/frahmantamala/complaint-management/internal/transport/rest"
	"github.com/frahmantamala/complaint-management/internal/user"
	userPostgres "github.com/frahmantamala/complaint-management/internal/user/postgres"
	"github.com/frahmantamala/complaint-management/pkg/backoff"
	"github.com/frahmantamala/complaint-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config  *internal.Config
	DB      *sqlx.DB
	Gorm    *gorm.DB
	Router  *chi.Mux
	Bus     *events.EventBus
	Sweeper *notification.Sweeper
	Logger  *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		deps.Sweeper.Run(sweepCtx)
	}()

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			stopSweeper()
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}

	stopSweeper()
	<-sweeperDone

	// notifications already in flight still get written
	if err := deps.Bus.Drain(ctx); err != nil {
		deps.Logger.Warn("event handlers still running at shutdown", "error", err)
	}

	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Env, config.Observability.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	spec, err := openapi.Load(context.Background(), config.Server.OpenAPIPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load api document: %w", err)
	}
	log.Info("api document loaded", "title", spec.Title(), "version", spec.Version())

	bus := events.NewEventBus(log)
	base := transport.NewBaseHandler(log)
	retry := backoff.Policy{
		Attempts:  config.Notification.Retry.Attempts,
		BaseDelay: config.Notification.Retry.BaseDelay,
	}

	activityService := activitylog.NewService(
		activityPostgres.NewActivityLogRepository(gdb),
		activityPostgres.NewAnalyticsRepository(db),
		log,
	)
	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(gdb), activityService, log)
	roleService := role.NewService(rolePostgres.NewRoleRepository(gdb), activityService, log)

	tokenGenerator := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokenGenerator, departmentService, activityService, log, auth.Options{
		BCryptCost:         config.Security.BCryptCost,
		AllowedEmailDomain: config.Security.AllowedEmailDomain,
	})
	userService := user.NewService(userPostgres.NewUserRepository(gdb), authService, departmentService, activityService, log, config.Security.AllowedEmailDomain)

	complaintService := complaint.NewService(complaintPostgres.NewComplaintRepository(gdb), departmentService, activityService, bus, log)
	taskService := task.NewService(taskPostgres.NewTaskRepository(gdb), activityService, bus, log)

	notificationService := notification.NewService(notificationPostgres.NewNotificationRepository(gdb), config.Notification.Purge.Retention, log)

	var sender push.Sender
	if config.Notification.WebPush.Enabled {
		sender = push.NewWebPushSender(push.VAPIDConfig{
			PublicKey:  config.Notification.WebPush.VAPIDPublicKey,
			PrivateKey: config.Notification.WebPush.VAPIDPrivateKey,
			Subject:    config.Notification.WebPush.Subject,
			TTL:        config.Notification.WebPush.TTL,
		}, nil)
	} else {
		log.Info("web push disabled")
	}
	pushService := push.NewService(pushPostgres.NewSubscriptionRepository(gdb), sender, config.Notification.WebPush.VAPIDPublicKey, retry, log)

	var mailer notification.Mailer
	if config.Notification.SMTP.Enabled {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     config.Notification.SMTP.Host,
			Port:     config.Notification.SMTP.Port,
			Username: config.Notification.SMTP.Username,
			Password: config.Notification.SMTP.Password,
			From:     config.Notification.SMTP.From,
		})
	} else {
		log.Info("email notifications disabled")
	}

	dispatcher := notification.NewDispatcher(
		notificationService,
		notificationPostgres.NewDirectory(gdb),
		mailer,
		pushService,
		notification.DispatcherOptions{AppURL: config.Notification.AppURL, Retry: retry},
		log,
	)
	dispatcher.RegisterEventHandlers(bus)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:          auth.NewHandler(base, authService),
		Users:         user.NewHandler(base, userService),
		Departments:   department.NewHandler(base, departmentService),
		Roles:         role.NewHandler(base, roleService),
		Complaints:    complaint.NewHandler(base, complaintService),
		Tasks:         task.NewHandler(base, taskService),
		Notifications: notification.NewHandler(base, notificationService),
		Push:          push.NewHandler(base, pushService),
		Activity:      activitylog.NewHandler(base, activityService),
	}, rest.Options{
		Health:         rest.NewHealthHandler(map[string]rest.Pinger{"postgres": db.DB}),
		Logger:         log,
		Spec:           spec.Handler(),
		AuthLimiter:    middleware.NewIPRateLimiter(config.RateLimit.AuthRPS, config.RateLimit.AuthBurst),
		TrustProxy:     config.RateLimit.TrustProxy,
		CORS:           middleware.DefaultCORSConfig(config.Server.Origins()),
		MetricsEnabled: config.Observability.Metrics.Enabled,
		MetricsPath:    config.Observability.Metrics.Path,
	})

	return &Dependencies{
		Config:  config,
		Logger:  log,
		DB:      db,
		Gorm:    gdb,
		Router:  router,
		Bus:     bus,
		Sweeper: notification.NewSweeper(notificationService, config.Notification.Purge.Interval, log),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see one set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}
