package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"CandleCast/internal/domain/models"
	"CandleCast/pkg/cache"
	"CandleCast/pkg/logger"
)

const kvTimeout = 2 * time.Second

var performanceKey = cache.GenerateKey("model", "performance")

// Tracker maintains the running prediction-accuracy counter. Persistence
// through the key-value collaborator is fire-and-forget: load and save
// failures are logged and the tracker continues with in-memory state.
type Tracker struct {
	kv  cache.Service
	log *logger.Logger

	mu    sync.Mutex
	stats models.ModelPerformance
}

// NewTracker creates a Tracker and best-effort restores persisted counters.
// kv may be nil, in which case the tracker is purely in-memory.
func NewTracker(kv cache.Service, log *logger.Logger) *Tracker {
	t := &Tracker{kv: kv, log: log}
	t.load()
	return t
}

// Update records a validated prediction outcome and returns the new snapshot.
func (t *Tracker) Update(pred models.PredictionResult, actual models.Direction) models.ModelPerformance {
	t.mu.Lock()
	t.stats.TotalPredictions++
	if pred.Direction == actual {
		t.stats.CorrectPredictions++
	}
	if t.stats.TotalPredictions > 0 {
		t.stats.Accuracy = float64(t.stats.CorrectPredictions) / float64(t.stats.TotalPredictions)
	}
	t.stats.UpdatedAt = time.Now().UnixMilli()
	snapshot := t.stats
	t.mu.Unlock()

	t.save(snapshot)
	return snapshot
}

// Snapshot returns the current performance counters.
func (t *Tracker) Snapshot() models.ModelPerformance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *Tracker) load() {
	if t.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), kvTimeout)
	defer cancel()

	var raw string
	if err := t.kv.Get(ctx, performanceKey, &raw); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && t.log != nil {
			t.log.Warn("tracker: load failed, starting with defaults", logger.Error(err))
		}
		return
	}
	var stats models.ModelPerformance
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		if t.log != nil {
			t.log.Warn("tracker: corrupt persisted state, starting with defaults", logger.Error(err))
		}
		return
	}
	t.mu.Lock()
	t.stats = stats
	t.mu.Unlock()
}

func (t *Tracker) save(stats models.ModelPerformance) {
	if t.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), kvTimeout)
	defer cancel()

	b, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := t.kv.Set(ctx, performanceKey, string(b), 0); err != nil && t.log != nil {
		t.log.Warn("tracker: save failed, keeping in-memory state", logger.Error(err))
	}
}
