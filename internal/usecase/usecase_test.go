package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"CandleCast/internal/domain/models"
	"CandleCast/internal/repository"
	"CandleCast/internal/services/features"
	"CandleCast/internal/services/prediction"
	"CandleCast/pkg/cache"
	"CandleCast/pkg/logger"
	"CandleCast/pkg/queue"
	"CandleCast/pkg/random"
)

type noopMetrics struct{}

func (noopMetrics) RecordCandleIngested(string)      {}
func (noopMetrics) RecordPrediction(string, float64) {}
func (noopMetrics) RecordModelAccuracy(float64)      {}
func (noopMetrics) RecordBacktest(string, float64)   {}
func (noopMetrics) RecordError(string)               {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func seedSession(t *testing.T, store *repository.MemoryStore, n int) string {
	t.Helper()
	ctx := context.Background()
	err := store.CreateSession(ctx, &models.Session{
		ID:        "sess",
		Symbol:    "BTCUSDT",
		Timeframe: "1m",
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	open := 100.0
	for i := 0; i < n; i++ {
		close := open * 1.01
		c := models.Candle{
			Timestamp: int64(i+1) * 60_000,
			Open:      open,
			High:      close * 1.0005,
			Low:       open * 0.9995,
			Close:     close,
			Volume:    1000,
		}
		if _, err := store.AppendCandle(ctx, "sess", c); err != nil {
			t.Fatalf("AppendCandle %d: %v", i, err)
		}
		open = close
	}
	return "sess"
}

func newPredictionUsecase(t *testing.T, store *repository.MemoryStore) *PredictionUsecase {
	t.Helper()
	return NewPredictionUsecase(
		store,
		features.NewExtractor(),
		prediction.NewScorer(),
		prediction.NewTracker(nil, testLogger(t)),
		random.NewUUIDSource(),
		noopMetrics{},
		testLogger(t),
	)
}

func TestPredictLifecycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	id := seedSession(t, store, 25)
	uc := newPredictionUsecase(t, store)

	p, err := uc.Predict(ctx, id, -1)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.CandleIndex != 24 {
		t.Fatalf("latest index = %d, want 24", p.CandleIndex)
	}
	if p.Result.Direction != models.DirectionUp && p.Result.Direction != models.DirectionDown {
		t.Fatalf("direction = %q", p.Result.Direction)
	}

	// repeated calls return the stored prediction
	again, err := uc.Predict(ctx, id, 24)
	if err != nil {
		t.Fatalf("Predict again: %v", err)
	}
	if !reflect.DeepEqual(again.Result, p.Result) || !again.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("second Predict produced a new prediction")
	}

	// the following candle does not exist yet
	if _, err := uc.Validate(ctx, id, 24, 0); !errors.Is(err, ErrNextCandleUnavailable) {
		t.Fatalf("Validate without next candle: %v", err)
	}

	// explicit actual close resolves immediately
	validated, err := uc.Validate(ctx, id, 24, 1e9)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !validated.Validated || validated.Actual != models.DirectionUp {
		t.Fatalf("validated = %+v", validated)
	}
	if validated.Correct != (p.Result.Direction == models.DirectionUp) {
		t.Fatalf("correctness mismatch: %+v", validated)
	}

	perf := uc.Performance(ctx)
	if perf.TotalPredictions != 1 {
		t.Fatalf("performance totals = %+v", perf)
	}

	list, err := uc.List(ctx, id)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, err %v", list, err)
	}
}

func TestPredictIndexBounds(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	id := seedSession(t, store, 5)
	uc := newPredictionUsecase(t, store)

	if _, err := uc.Predict(ctx, id, 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("out-of-range index: %v", err)
	}
	if _, err := uc.Predict(ctx, id, 1); err == nil {
		t.Fatalf("expected insufficient-history error at index 1")
	}
	if _, err := uc.Predict(ctx, "missing", -1); !IsNotFound(err) {
		t.Fatalf("missing session: %v", err)
	}
}

func TestBacktestRun(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	id := seedSession(t, store, 40)
	uc := NewBacktestUsecase(
		store,
		features.NewExtractor(),
		prediction.NewScorer(),
		random.NewUUIDSource(),
		nil,
		cache.NewMemoryCache(),
		noopMetrics{},
		testLogger(t),
	)

	report, err := uc.Run(ctx, id, models.BacktestConfig{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.EquityCurve) != 40 {
		t.Fatalf("equity curve = %d points, want 40", len(report.EquityCurve))
	}
	if report.FinalCapital <= 0 {
		t.Fatalf("final capital = %v", report.FinalCapital)
	}

	if _, err := uc.Run(ctx, "missing", models.BacktestConfig{}); !IsNotFound(err) {
		t.Fatalf("missing session: %v", err)
	}
}

func TestBacktestEnqueue(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	id := seedSession(t, store, 40)

	q := queue.NewMemoryQueue(queue.QueueConfig{Workers: 1, QueueSize: 4, RetryDelay: time.Millisecond}, nil)
	uc := NewBacktestUsecase(
		store,
		features.NewExtractor(),
		prediction.NewScorer(),
		random.NewUUIDSource(),
		q,
		cache.NewMemoryCache(),
		noopMetrics{},
		testLogger(t),
	)
	q.Register(NewBacktestJob(uc))
	q.Start(ctx)
	defer q.Stop()

	jobID, err := uc.Enqueue(ctx, id, models.BacktestConfig{})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		state, err := uc.Job(ctx, jobID)
		if err != nil {
			t.Fatalf("Job: %v", err)
		}
		if state.Status == JobCompleted {
			if state.Report == nil {
				t.Fatalf("completed job has no report")
			}
			break
		}
		if state.Status == JobFailed {
			t.Fatalf("job failed: %s", state.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %q", state.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := uc.Job(ctx, "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("unknown job: %v", err)
	}

	if _, err := uc.Enqueue(ctx, "missing", models.BacktestConfig{}); !IsNotFound(err) {
		t.Fatalf("enqueue for missing session: %v", err)
	}
}

func TestBacktestEnqueueLock(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	id := seedSession(t, store, 40)

	// Workers never started, so the first job stays queued and holds the lock.
	q := queue.NewMemoryQueue(queue.QueueConfig{Workers: 1, QueueSize: 4}, nil)
	uc := NewBacktestUsecase(
		store,
		features.NewExtractor(),
		prediction.NewScorer(),
		random.NewUUIDSource(),
		q,
		cache.NewMemoryCache(),
		noopMetrics{},
		testLogger(t),
	)

	if _, err := uc.Enqueue(ctx, id, models.BacktestConfig{}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, err := uc.Enqueue(ctx, id, models.BacktestConfig{}); !errors.Is(err, ErrBacktestInProgress) {
		t.Fatalf("second enqueue = %v, want ErrBacktestInProgress", err)
	}
}
