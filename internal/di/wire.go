//go:build wireinject
// +build wireinject

package di

import (
	"CandleCast/pkg/config"
	"CandleCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideKV,
		ProvideResponseCache,
		ProvideSeedSource,

		// Core services
		ProvideSessionStore,
		ProvideExtractor,
		ProvideScorer,
		ProvideTracker,
		ProvideQueue,
		ProvideQueueService,

		// Stream ingestion
		ProvideMarketStream,
		ProvideCandleProcessor,
		ProvidePipeline,
		ProvideCandleCollector,

		// Use cases
		ProvideSessionUsecase,
		ProvidePredictionUsecase,
		ProvideBacktestUsecase,

		//HTTP surface
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
