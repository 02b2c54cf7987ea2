package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandleCast/internal/domain/models"
)

func testCandle(ts int64) models.Candle {
	return models.Candle{
		Timestamp: ts,
		Open:      100,
		High:      101,
		Low:       99,
		Close:     100.5,
		Volume:    1000,
	}
}

func newSession(t *testing.T, store *MemoryStore, id string) {
	t.Helper()
	err := store.CreateSession(context.Background(), &models.Session{
		ID:        id,
		Symbol:    "BTCUSDT",
		Timeframe: "1m",
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newSession(t, store, "s1")

	if err := store.CreateSession(ctx, &models.Session{ID: "s1"}); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("duplicate create: %v, want ErrSessionExists", err)
	}
	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Symbol != "BTCUSDT" || got.CreatedAt.IsZero() {
		t.Fatalf("session = %+v", got)
	}
	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing session: %v, want ErrSessionNotFound", err)
	}
	list, err := store.ListSessions(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSessions = %v, %v", list, err)
	}
}

func TestAppendCandleOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newSession(t, store, "s1")

	for i := 0; i < 3; i++ {
		idx, err := store.AppendCandle(ctx, "s1", testCandle(int64(i)*60_000))
		if err != nil {
			t.Fatalf("AppendCandle %d: %v", i, err)
		}
		if idx != i {
			t.Fatalf("assigned index = %d, want %d", idx, i)
		}
	}

	if _, err := store.AppendCandle(ctx, "s1", testCandle(60_000)); !errors.Is(err, ErrCandleOutOfOrder) {
		t.Fatalf("stale timestamp: %v, want ErrCandleOutOfOrder", err)
	}

	bad := testCandle(300_000)
	bad.High = bad.Low - 1
	if _, err := store.AppendCandle(ctx, "s1", bad); err == nil {
		t.Fatalf("expected validation error for inverted high/low")
	}

	if _, err := store.AppendCandle(ctx, "nope", testCandle(0)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown session: %v, want ErrSessionNotFound", err)
	}
}

func TestCandleRangeQueries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newSession(t, store, "s1")
	for i := 0; i < 5; i++ {
		if _, err := store.AppendCandle(ctx, "s1", testCandle(int64(i)*60_000)); err != nil {
			t.Fatalf("AppendCandle: %v", err)
		}
	}

	all, err := store.Candles(ctx, "s1", 0, -1)
	if err != nil || len(all) != 5 {
		t.Fatalf("full range = %d candles, err %v", len(all), err)
	}
	mid, err := store.Candles(ctx, "s1", 1, 3)
	if err != nil || len(mid) != 2 || mid[0].Index != 1 {
		t.Fatalf("mid range = %+v, err %v", mid, err)
	}
	empty, err := store.Candles(ctx, "s1", 4, 2)
	if err != nil || len(empty) != 0 {
		t.Fatalf("inverted range = %v, err %v", empty, err)
	}
	if n, _ := store.CandleCount(ctx, "s1"); n != 5 {
		t.Fatalf("CandleCount = %d, want 5", n)
	}

	// returned slice is a copy
	all[0].Close = -1
	again, _ := store.Candles(ctx, "s1", 0, 1)
	if again[0].Close == -1 {
		t.Fatalf("Candles leaked internal storage")
	}
}

func TestPredictionStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newSession(t, store, "s1")
	for i := 0; i < 3; i++ {
		if _, err := store.AppendCandle(ctx, "s1", testCandle(int64(i)*60_000)); err != nil {
			t.Fatalf("AppendCandle: %v", err)
		}
	}

	p := &models.StoredPrediction{
		SessionID:   "s1",
		CandleIndex: 1,
		Result:      models.PredictionResult{Direction: models.DirectionUp, Probability: 0.7, Confidence: 0.8},
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.SavePrediction(ctx, p); err != nil {
		t.Fatalf("SavePrediction: %v", err)
	}

	got, err := store.GetPrediction(ctx, "s1", 1)
	if err != nil {
		t.Fatalf("GetPrediction: %v", err)
	}
	if got.Result.Direction != models.DirectionUp {
		t.Fatalf("prediction = %+v", got)
	}
	if _, err := store.GetPrediction(ctx, "s1", 2); !errors.Is(err, ErrPredictionNotFound) {
		t.Fatalf("missing prediction: %v, want ErrPredictionNotFound", err)
	}

	// validation outcome is an upsert of the same key
	got.Validated = true
	got.Actual = models.DirectionUp
	got.Correct = true
	if err := store.SavePrediction(ctx, got); err != nil {
		t.Fatalf("SavePrediction update: %v", err)
	}
	updated, _ := store.GetPrediction(ctx, "s1", 1)
	if !updated.Validated || !updated.Correct {
		t.Fatalf("validation outcome not persisted: %+v", updated)
	}

	list, err := store.ListPredictions(ctx, "s1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListPredictions = %v, err %v", list, err)
	}
}
