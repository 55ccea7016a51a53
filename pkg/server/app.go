package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/forecast"
	"StockCast/internal/usecase"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
)

// App encapsulates the application lifecycle: seeding, model load,
// background loops, and the HTTP server.
type App struct {
	cfg       *config.Config
	logger    *applogger.Logger
	store     domrepo.SeriesStore
	archive   domrepo.CandleArchive
	publisher domrepo.EventPublisher
	registry  *forecast.Registry
	loader    *usecase.HistoryLoader
	runner    *usecase.Runner
	handler   xhttp.Handler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	store domrepo.SeriesStore,
	archive domrepo.CandleArchive,
	publisher domrepo.EventPublisher,
	registry *forecast.Registry,
	loader *usecase.HistoryLoader,
	runner *usecase.Runner,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		archive:   archive,
		publisher: publisher,
		registry:  registry,
		loader:    loader,
		runner:    runner,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.archive.Init(ctx); err != nil {
		a.logger.Warn("archive init failed, continuing without it", applogger.Error(err))
	}

	// first history pull so the model has something to load or train on
	if err := a.loader.RefreshAll(ctx); err != nil {
		a.logger.Warn("initial history refresh failed", applogger.Error(err))
	}

	if err := a.registry.Load(ctx); err != nil {
		a.logger.Warn("model not ready at startup, retrain loop will retry", applogger.Error(err))
	} else {
		a.logger.Info("model ready")
	}

	a.runner.Start(ctx)
	a.logger.Info("background loops started",
		applogger.Strings("symbols", a.cfg.Market.Symbols),
		applogger.String("interval", a.cfg.Market.Interval))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("publisher close error", applogger.Error(err))
	}
	if err := a.archive.Close(); err != nil {
		a.logger.Warn("archive close error", applogger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close error", applogger.Error(err))
	}

	a.logger.Info("stopped")
	return nil
}
