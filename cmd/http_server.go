package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/core/events"
	"github.com/rotaworks/workforce-auth/internal/directory"
	directorypg "github.com/rotaworks/workforce-auth/internal/directory/postgres"
	"github.com/rotaworks/workforce-auth/internal/notification"
	"github.com/rotaworks/workforce-auth/internal/permissions"
	permissionspg "github.com/rotaworks/workforce-auth/internal/permissions/postgres"
	"github.com/rotaworks/workforce-auth/internal/registration"
	registrationpg "github.com/rotaworks/workforce-auth/internal/registration/postgres"
	"github.com/rotaworks/workforce-auth/internal/transport/rest"
	"github.com/rotaworks/workforce-auth/internal/user"
	userpg "github.com/rotaworks/workforce-auth/internal/user/postgres"
	"github.com/rotaworks/workforce-auth/internal/workforce"
	"github.com/rotaworks/workforce-auth/pkg/logger"
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
	Config    *internal.Config
	DB        *sqlx.DB
	Router    *chi.Mux
	Directory *directory.Service
	Sessions  *registration.SessionStore
	Logger    *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background maintenance: session sweeping and scheduled directory sync.
	deps.Sessions.StartSweeper(ctx, time.Minute)
	if deps.Config.Sync.Enabled {
		go deps.Directory.RunPeriodic(ctx, deps.Config.Sync.Interval)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	wfClient := workforce.NewClient(workforce.Config{
		BaseURL:     cfg.Workforce.BaseURL,
		APIURL:      cfg.Workforce.APIURL,
		AccessToken: cfg.Workforce.AccessToken,
		Timeout:     cfg.Workforce.Timeout,
	}, lg)

	var mailer notification.Mailer
	if cfg.Mail.Enabled {
		mailer = notification.NewMailgunMailer(cfg.Mail, lg)
	} else {
		mailer = notification.NewLogMailer(lg)
	}

	bus := events.NewEventBus(lg)
	subscribeAuditLog(bus, lg)

	// Repositories
	accountRepo := userpg.NewAccountRepository(gdb)
	userRepo := registrationpg.NewUserRepository(gdb)
	rateLimitRepo := registrationpg.NewRateLimitRepository(db)
	permissionRepo := permissionspg.NewPermissionRepository(gdb)
	directoryRepo := directorypg.NewDirectoryRepository(gdb)

	// Services
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(accountRepo, userRepo, tokenGen, lg)

	normalizer := registration.NewNormalizer(cfg.Registration.DefaultCountryCode)
	matcher := registration.NewMatcher(normalizer, lg)
	sessions := registration.NewSessionStore(cfg.Registration.SessionTTL, lg)
	limiter := registration.NewRateLimiter(rateLimitRepo, cfg.Registration.RateLimit, cfg.Registration.RateLimitWindow, lg)
	registrationService := registration.NewService(
		cfg.Registration,
		cfg.Workforce.LocationIDs,
		wfClient,
		userRepo,
		accountRepo,
		matcher,
		sessions,
		limiter,
		mailer,
		bus,
		cfg.Security.BCryptCost,
		lg,
	)

	permissionService := permissions.NewService(permissionRepo, lg)
	directoryService := directory.NewService(wfClient, directoryRepo, userRepo, bus, cfg.Workforce.LocationIDs, lg)
	userService := user.NewService(accountRepo, userRepo, mailer, bus, lg)

	// HTTP layer
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:         auth.NewHandler(authService),
		User:         user.NewHandler(userService),
		Registration: registration.NewHandler(registrationService, int(cfg.Registration.SessionTTL.Seconds())),
		Permissions:  permissions.NewHandler(permissionService),
		Directory:    directory.NewHandler(directoryService),
		Upstream:     wfClient,
	}, lg)

	return &Dependencies{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Directory: directoryService,
		Sessions:  sessions,
		Logger:    lg,
	}, nil
}

// subscribeAuditLog writes an audit line for every domain event.
func subscribeAuditLog(bus *events.EventBus, lg *slog.Logger) {
	audit := func(ctx context.Context, event events.Event) error {
		lg.Info("domain event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	}

	bus.Subscribe(events.EventTypeRegistrationCompleted, audit)
	bus.Subscribe(events.EventTypeRegistrationApproved, audit)
	bus.Subscribe(events.EventTypeRegistrationRejected, audit)
	bus.Subscribe(events.EventTypeDirectorySynced, audit)
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
	if cfg.ConnMaxLifetime > 0 {
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
