package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"CandleCast/internal/domain/models"
	"CandleCast/internal/domain/repository"
	"CandleCast/internal/handler/api"
	mid "CandleCast/internal/middleware"
	internalrepo "CandleCast/internal/repository"
	"CandleCast/internal/service/binance"
	icache "CandleCast/internal/service/cache"
	imetrics "CandleCast/internal/service/metrics"
	"CandleCast/internal/services/features"
	"CandleCast/internal/services/prediction"
	"CandleCast/internal/usecase"
	pkgcache "CandleCast/pkg/cache"
	"CandleCast/pkg/config"
	"CandleCast/pkg/logger"
	"CandleCast/pkg/metrics"
	"CandleCast/pkg/queue"
	"CandleCast/pkg/random"
	"CandleCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	if cfg.Logging.Pretty {
		format = "console"
	}
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	imetrics.Register()
	return metrics.New()
}

// ProvideSessionStore creates the in-memory session store.
func ProvideSessionStore() repository.SessionStore {
	return internalrepo.NewMemoryStore()
}

// ProvideKV creates the key-value collaborator, redis when configured and an
// in-process cache otherwise.
func ProvideKV(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	// hot keys served from the in-process layer, redis as source of truth
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideResponseCache creates the response cache used by the candle endpoints.
func ProvideResponseCache(cfg *config.Config) icache.ResponseCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideSeedSource creates the seed source for prediction and trade ids.
func ProvideSeedSource() random.SeedSource {
	return random.NewUUIDSource()
}

// ProvideExtractor creates the feature extractor.
func ProvideExtractor() *features.Extractor {
	return features.NewExtractor()
}

// ProvideScorer creates the prediction scorer.
func ProvideScorer() *prediction.Scorer {
	return prediction.NewScorer()
}

// ProvideTracker creates the KV-backed accuracy tracker.
func ProvideTracker(kv pkgcache.Service, log *logger.Logger) *prediction.Tracker {
	return prediction.NewTracker(kv, log)
}

// ProvideQueue creates the in-process backtest job queue.
func ProvideQueue(cfg *config.Config, log *logger.Logger) *queue.MemoryQueue {
	return queue.NewMemoryQueue(queue.QueueConfig{
		Workers:    cfg.Backtest.Workers,
		QueueSize:  cfg.Backtest.QueueLen,
		RetryLimit: 0,
		RetryDelay: time.Second,
	}, log)
}

// ProvideQueueService exposes the queue behind its service interface.
func ProvideQueueService(q *queue.MemoryQueue) queue.QueueService { return q }

// ProvideMarketStream creates the Binance kline stream.
func ProvideMarketStream(cfg *config.Config, log *logger.Logger) repository.MarketStream {
	return binance.New(
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbol,
		cfg.Stream.Interval,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
}

// ProvideCandleProcessor creates the stream processor together with the live
// session it appends to.
func ProvideCandleProcessor(store repository.SessionStore, m repository.Metrics, cfg *config.Config) (*usecase.CandleProcessor, error) {
	now := time.Now().UTC()
	live := &models.Session{
		ID:        uuid.NewString(),
		Symbol:    cfg.Stream.Symbol,
		Timeframe: cfg.Stream.Interval,
		StartedAt: now,
		CreatedAt: now,
	}
	if cfg.Stream.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.CreateSession(ctx, live); err != nil {
			return nil, fmt.Errorf("live session: %w", err)
		}
	}
	return usecase.NewCandleProcessor(store, m, live.ID, cfg.Stream.Symbol), nil
}

// ProvidePipeline creates the stream ingestion pipeline.
func ProvidePipeline(proc *usecase.CandleProcessor, m repository.Metrics) *mid.RealtimePipeline {
	return mid.NewRealtimePipeline(proc, m)
}

// ProvideCandleCollector creates the stream collector.
func ProvideCandleCollector(stream repository.MarketStream, proc *usecase.CandleProcessor, m repository.Metrics, pipe *mid.RealtimePipeline) *usecase.CandleCollector {
	return usecase.NewCandleCollector(stream, proc, m, pipe)
}

// ProvideSessionUsecase creates the session usecase.
func ProvideSessionUsecase(store repository.SessionStore, m repository.Metrics) *usecase.SessionUsecase {
	return usecase.NewSessionUsecase(store, m)
}

// ProvidePredictionUsecase creates the prediction usecase.
func ProvidePredictionUsecase(
	store repository.SessionStore,
	extractor *features.Extractor,
	scorer *prediction.Scorer,
	tracker *prediction.Tracker,
	seeds random.SeedSource,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.PredictionUsecase {
	return usecase.NewPredictionUsecase(store, extractor, scorer, tracker, seeds, m, log)
}

// ProvideBacktestUsecase creates the backtest usecase.
func ProvideBacktestUsecase(
	store repository.SessionStore,
	extractor *features.Extractor,
	scorer *prediction.Scorer,
	seeds random.SeedSource,
	qs queue.QueueService,
	kv pkgcache.Service,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.BacktestUsecase {
	return usecase.NewBacktestUsecase(store, extractor, scorer, seeds, qs, kv, m, log)
}

// ProvideRouter bundles the HTTP handlers.
func ProvideRouter(
	log *logger.Logger,
	sessions *usecase.SessionUsecase,
	predictions *usecase.PredictionUsecase,
	backtests *usecase.BacktestUsecase,
	responseCache icache.ResponseCache,
) *api.Router {
	return api.NewRouter(
		api.NewSessionsEchoHandler(log, sessions, responseCache),
		api.NewPredictionsEchoHandler(log, predictions),
		api.NewBacktestEchoHandler(log, backtests),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.CandleCollector,
	q *queue.MemoryQueue,
	backtests *usecase.BacktestUsecase,
	router *api.Router,
) *server.App {
	return server.New(cfg, log, collector, q, backtests, router)
}
