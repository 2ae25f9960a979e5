package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/cyclecast/internal/api"
	"github.com/terraincognita07/cyclecast/internal/config"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/enrichment"
	"github.com/terraincognita07/cyclecast/internal/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cyclecast",
		Short:        "Self-hosted cycle tracker with next-period prediction",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCommand(),
		newReportCommand(),
		newResetPasswordCommand(),
		newSecretCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	port, err := config.ResolvePort(cfg.Port)
	if err != nil {
		return err
	}

	database, err := db.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enricher, err := newEnricher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	handler, err := api.NewHandlerWithDatabase(database, enricher, api.Options{
		SecretKey:    cfg.SecretKey,
		Location:     cfg.Location,
		CookieSecure: cfg.CookieSecure,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := buildApp(handler, logger)

	reminderConfig, err := reminderConfigFrom(cfg)
	if err != nil {
		return err
	}
	repositories := db.NewRepositories(database)
	reminders := services.NewReminderService(repositories.Users, repositories.DailyLogs, reminderConfig, cfg.Location, logger)
	reminders.Start(ctx)
	defer reminders.Wait()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("cyclecast listening",
		zap.String("addr", "0.0.0.0:"+port),
		zap.String("db", cfg.DBPath),
		zap.String("tz", cfg.Location.String()),
		zap.Bool("enrichment", enricher != nil),
		zap.Bool("reminders", reminders.Enabled()),
	)
	if err := app.Listen(":" + port); err != nil {
		stop()
		return fmt.Errorf("server exited: %w", err)
	}
	stop()
	return nil
}

func buildApp(handler *api.Handler, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cyclecast",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(logger.Named("http")).Writer(),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)
	return app
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = parsed
	return zapConfig.Build()
}

// newEnricher returns a nil interface, not a typed nil, when enrichment is not configured.
func newEnricher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Enricher, error) {
	if !cfg.EnrichmentEnabled() {
		return nil, nil
	}
	timeout, err := cfg.EnrichmentTimeout()
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Enrichment.Model)
	if model == "" {
		model = enrichment.DefaultModel
	}
	enricher, err := enrichment.NewGenAIEnricher(ctx, cfg.Enrichment.APIKey, model, timeout)
	if err != nil {
		return nil, fmt.Errorf("enrichment init failed: %w", err)
	}
	logger.Info("prediction enrichment enabled", zap.String("model", model), zap.Duration("timeout", timeout))
	return enricher, nil
}

func reminderConfigFrom(cfg *config.Config) (services.ReminderConfig, error) {
	interval, err := cfg.ReminderScanInterval()
	if err != nil {
		return services.ReminderConfig{}, err
	}
	return services.ReminderConfig{
		BotToken:           cfg.Telegram.BotToken,
		ChatID:             cfg.Telegram.ChatID,
		PeriodReminderDays: cfg.Telegram.PeriodReminderDays,
		NotifyFertility:    cfg.Telegram.NotifyFertility,
		Interval:           interval,
	}, nil
}
