package main

import (
	"fmt"

	"github.com/shaibs3/pageanalyzer/internal/app"
	"github.com/shaibs3/pageanalyzer/internal/config"
	"github.com/shaibs3/pageanalyzer/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		Long: `Run the web application. Configuration is read from the environment
(PORT, ENVIRONMENT, LOG_LEVEL, DB_CONFIG, DATABASE_URL, RPS_LIMIT, RPS_BURST,
FETCH_TIMEOUT, USER_AGENT) and from a .env file when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// Initialize logger first (for configuration loading)
	initialLogger, err := logger.NewLogger("production", "info")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = initialLogger.Sync()
	}()

	cfg := config.Load(initialLogger)

	// Create application logger with proper configuration
	appLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create application logger: %w", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	appLogger.Info("Build info",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", zap.Error(err))
		return err
	}
	return application.Run()
}
