package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"daycheck/internal/config"
	"daycheck/internal/logger"
	"daycheck/internal/metrics"
	"daycheck/internal/repository"
	"daycheck/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a subcommand needs once config and storage are up.
type app struct {
	envFile  string
	logLevel string
	dbPath   string

	cfg       config.Config
	log       *logrus.Logger
	db        *gorm.DB
	metrics   *metrics.Metrics
	users     *repository.UserRepository
	schedules *service.ScheduleService
	patterns  *service.PatternService
	events    *service.EventService
	digest    *service.DigestService
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "daycheck",
		Short:         "Personal schedule with recurring events and completion tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "override DATABASE_URL")

	root.AddCommand(
		newBotCommand(a),
		newUsersCommand(a),
		newAgendaCommand(a),
		newToggleCommand(a),
		newHistoryCommand(a),
		newPatternsCommand(a),
		newPatternCommand(a),
		newEventCommand(a),
		newExportCommand(a),
	)
	return root
}

func (a *app) init() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.dbPath != "" {
		cfg.DatabaseURL = a.dbPath
	}
	a.cfg = cfg
	a.log = logger.New(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, a.log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	a.db = db

	patternRepo := repository.NewPatternRepository(db)
	eventRepo := repository.NewEventRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	a.metrics = metrics.MustNew(prometheus.DefaultRegisterer)
	a.users = repository.NewUserRepository(db)
	a.schedules = service.NewScheduleService(patternRepo, eventRepo, completionRepo, service.ScheduleOptions{
		Location:     cfg.Location,
		MaxRangeDays: cfg.MaxRangeDays,
		RangeWorkers: cfg.RangeWorkers,
		Metrics:      a.metrics,
		Logger:       a.log,
	})
	a.patterns = service.NewPatternService(patternRepo, a.log)
	a.events = service.NewEventService(eventRepo, cfg.Location, a.log)
	a.digest = service.NewDigestService(a.schedules)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
