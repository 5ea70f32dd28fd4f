package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/analyzer"
	"github.com/shaibs3/pageanalyzer/internal/handlers"
	"github.com/shaibs3/pageanalyzer/internal/pages"
	"github.com/shaibs3/pageanalyzer/internal/router"
	"golang.org/x/time/rate"

	"github.com/shaibs3/pageanalyzer/internal/config"
	"github.com/shaibs3/pageanalyzer/internal/storage"
	"github.com/shaibs3/pageanalyzer/internal/telemetry"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config    *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	store     storage.Provider
	server    *http.Server
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(logger)
	if err != nil {
		return nil, err
	}

	// An empty DBConfig selects the in-memory provider
	var factory storage.ProviderFactory = storage.NewDbProviderFactory(logger, tel)
	store, err := factory.CreateProvider(cfg.DBConfig)
	if err != nil {
		return nil, err
	}

	pageAnalyzer, err := analyzer.NewAnalyzer(analyzer.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
		Meter:     tel.Meter,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	service := pages.NewService(store, pageAnalyzer, logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.RPSLimit), cfg.RPSBurst)

	handlerList := []router.Handler{
		handlers.NewPageHandler(service),
	}

	appRouter := router.NewRouter(limiter, tel, logger, handlerList)
	server := appRouter.CreateServer(":" + cfg.Port)

	return &App{
		config:    cfg,
		logger:    logger,
		telemetry: tel,
		store:     store,
		server:    server,
	}, nil
}

// Handler exposes the application's HTTP handler
func (app *App) Handler() http.Handler {
	return app.server.Handler
}

// Start starts the application server
func (app *App) start() error {
	app.logger.Info("starting server", zap.String("port", app.config.Port))

	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the server, then releases storage and telemetry
func (app *App) stop() error {
	app.logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server forced to shutdown", zap.Error(err))
		errs = append(errs, err)
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error("failed to close storage", zap.Error(err))
		errs = append(errs, err)
	}
	if err := app.telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		app.logger.Info("server exited gracefully")
	}
	return errors.Join(errs...)
}

// Run starts the application and waits for shutdown signals
func (app *App) Run() error {
	// Start the server
	if err := app.start(); err != nil {
		return err
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop the application
	return app.stop()
}
