package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rotaworks/workforce-auth/internal/core/events"
	"github.com/rotaworks/workforce-auth/internal/directory"
	directorypg "github.com/rotaworks/workforce-auth/internal/directory/postgres"
	registrationpg "github.com/rotaworks/workforce-auth/internal/registration/postgres"
	"github.com/rotaworks/workforce-auth/internal/workforce"
	"github.com/rotaworks/workforce-auth/pkg/logger"
)

var (
	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Sync the directory from the Workforce platform",
		Long:  `Fetch locations, departments, memberships and employee snapshots from the Workforce API into local storage. Runs once by default; pass --interval to keep running.`,
		Run: func(cmd *cobra.Command, args []string) {
			runSync()
		},
	}
	syncInterval time.Duration
)

func init() {
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "keep syncing on this interval instead of running once")
}

func runSync() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	wfClient := workforce.NewClient(workforce.Config{
		BaseURL:     cfg.Workforce.BaseURL,
		APIURL:      cfg.Workforce.APIURL,
		AccessToken: cfg.Workforce.AccessToken,
		Timeout:     cfg.Workforce.Timeout,
	}, lg)

	bus := events.NewEventBus(lg)
	subscribeAuditLog(bus, lg)

	service := directory.NewService(
		wfClient,
		directorypg.NewDirectoryRepository(gdb),
		registrationpg.NewUserRepository(gdb),
		bus,
		cfg.Workforce.LocationIDs,
		lg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report, err := service.SyncAll(ctx)
	if err != nil {
		lg.Error("directory sync failed", "error", err)
		os.Exit(1)
	}
	lg.Info("sync finished",
		"locations", report.Locations,
		"departments", report.Departments,
		"employees", report.Employees,
		"memberships", report.Memberships)

	if syncInterval <= 0 {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	lg.Info("sync worker running", "interval", syncInterval)
	service.RunPeriodic(ctx, syncInterval)
}
