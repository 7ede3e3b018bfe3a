package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sjperalta/fintera-rentals/internal/config"
	"github.com/sjperalta/fintera-rentals/internal/database"
	"github.com/sjperalta/fintera-rentals/internal/locking"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/services"
	"github.com/sjperalta/fintera-rentals/pkg/logger"
)

var version = "1.0.0"

// errRunFailed makes the process exit 1 after a report has already been printed
var errRunFailed = errors.New("recognition run finished with errors")

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Ledger operations for rental contracts",
	Long: `ledgerctl runs daily revenue and VAT recognition for active rental
contracts, previews and exports recognition schedules and manages the
database schema.

Configuration is read from the environment (and .env when present):
  DATABASE_URL      - PostgreSQL connection string (required)
  BUSINESS_TIMEZONE - timezone deciding calendar days (default Asia/Dubai)
  VAT_RATE          - VAT rate as a fraction (default 0.05)
  REDIS_URL         - optional, shares contract locks with the API`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Setup(cfg.Environment, cfg.LogLevel)
		appConfig = cfg
		return nil
	},
}

var appConfig *config.Config

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			logger.Error("Command execution failed", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app is what a command needs to reach the ledger
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	svcs   *services.Services
	closer func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg := appConfig

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var locker locking.Locker = locking.NewMemoryLocker()
	closers := []func(){func() { _ = database.Close(db) }}
	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = locking.NewRedisLocker(rdb)
		closers = append(closers, func() { _ = rdb.Close() })
	}

	repos := repository.NewRepositories(db)
	return &app{
		cfg:  cfg,
		db:   db,
		svcs: services.NewServices(repos, nil, locker, nil, cfg),
		closer: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func (a *app) Close() {
	a.closer()
}

// parseAsOf reads a YYYY-MM-DD flag in the business timezone; empty means now
func parseAsOf(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, use YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}
