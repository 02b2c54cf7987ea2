package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CandleCast/internal/usecase"
	"CandleCast/pkg/config"
	xhttp "CandleCast/pkg/http"
	applogger "CandleCast/pkg/logger"
	"CandleCast/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.CandleCollector
	queue      *queue.MemoryQueue
	backtests  *usecase.BacktestUsecase
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.CandleCollector,
	q *queue.MemoryQueue,
	backtests *usecase.BacktestUsecase,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		queue:     q,
		backtests: backtests,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)

	// Start the backtest job workers
	a.queue.Register(usecase.NewBacktestJob(a.backtests))
	a.queue.Register(newErrorDigestJob(a.log))
	a.queue.Start(ctx)
	a.log.Info("backtest queue started",
		applogger.Int("workers", a.cfg.Backtest.Workers))

	// Aggregate repeated error logs into periodic digests
	a.log.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          errorDigestTopic,
		Publisher:      a.queue,
	})

	// Start the live candle stream when configured
	if a.cfg.Stream.Enabled {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("candle collector started",
			applogger.String("symbol", a.cfg.Stream.Symbol),
			applogger.String("interval", a.cfg.Stream.Interval))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Stream.Enabled {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Flush any pending error digest before the workers go away
	a.log.RemoveCollector()

	// Drain in-flight backtest jobs
	a.queue.Stop()

	a.log.Info("shutdown complete")
	return nil
}
