package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CandleCast/internal/domain/models"
	drepo "CandleCast/internal/domain/repository"
	"CandleCast/internal/repository"
	"CandleCast/internal/services/features"
	"CandleCast/internal/services/prediction"
	"CandleCast/pkg/logger"
	"CandleCast/pkg/random"
)

var (
	ErrIndexOutOfRange       = errors.New("candle index out of range")
	ErrNextCandleUnavailable = errors.New("next candle not yet available")
)

// PredictionUsecase produces, stores and validates per-candle direction
// calls. A prediction is created once per (session, index) pair; repeated
// requests return the stored value.
type PredictionUsecase struct {
	store     drepo.SessionStore
	extractor *features.Extractor
	scorer    *prediction.Scorer
	tracker   *prediction.Tracker
	seeds     random.SeedSource
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewPredictionUsecase creates a new PredictionUsecase instance.
func NewPredictionUsecase(
	store drepo.SessionStore,
	extractor *features.Extractor,
	scorer *prediction.Scorer,
	tracker *prediction.Tracker,
	seeds random.SeedSource,
	metrics drepo.Metrics,
	log *logger.Logger,
) *PredictionUsecase {
	return &PredictionUsecase{
		store:     store,
		extractor: extractor,
		scorer:    scorer,
		tracker:   tracker,
		seeds:     seeds,
		metrics:   metrics,
		log:       log,
	}
}

// Predict creates (or returns) the prediction at the given index; a negative
// index means the latest candle.
func (u *PredictionUsecase) Predict(ctx context.Context, sessionID string, index int) (*models.StoredPrediction, error) {
	candles, err := u.store.Candles(ctx, sessionID, 0, -1)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		index = len(candles) - 1
	}
	if index < 0 || index >= len(candles) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(candles))
	}

	if existing, err := u.store.GetPrediction(ctx, sessionID, index); err == nil {
		return existing, nil
	}

	fv, err := u.extractor.Extract(candles, index)
	if err != nil {
		u.metrics.RecordError("feature_extract")
		return nil, err
	}
	result := u.scorer.Score(fv, u.seeds.Seed())

	stored := &models.StoredPrediction{
		SessionID:   sessionID,
		CandleIndex: index,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	if err := u.store.SavePrediction(ctx, stored); err != nil {
		return nil, err
	}

	u.metrics.RecordPrediction(string(result.Direction), result.Confidence)
	u.log.Debug("prediction created",
		logger.String("session_id", sessionID),
		logger.Int("index", index),
		logger.String("direction", string(result.Direction)),
		logger.Float64("confidence", result.Confidence))
	return stored, nil
}

// Validate resolves a stored prediction against the realized next close.
// When actualClose is zero the stored series supplies the next candle.
// Validation is idempotent; an already validated prediction is returned
// unchanged.
func (u *PredictionUsecase) Validate(ctx context.Context, sessionID string, index int, actualClose float64) (*models.StoredPrediction, error) {
	stored, err := u.store.GetPrediction(ctx, sessionID, index)
	if err != nil {
		return nil, err
	}
	if stored.Validated {
		return stored, nil
	}

	current, err := u.store.Candles(ctx, sessionID, index, index+1)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	if actualClose <= 0 {
		next, err := u.store.Candles(ctx, sessionID, index+1, index+2)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			return nil, fmt.Errorf("%w: index %d", ErrNextCandleUnavailable, index+1)
		}
		actualClose = next[0].Close
	}

	actual := models.DirectionDown
	if actualClose > current[0].Close {
		actual = models.DirectionUp
	}

	stored.Validated = true
	stored.Actual = actual
	stored.Correct = actual == stored.Result.Direction
	if err := u.store.SavePrediction(ctx, stored); err != nil {
		return nil, err
	}

	perf := u.tracker.Update(stored.Result, actual)
	u.metrics.RecordModelAccuracy(perf.Accuracy)
	return stored, nil
}

// Performance returns the running model accuracy counters.
func (u *PredictionUsecase) Performance(_ context.Context) models.ModelPerformance {
	return u.tracker.Snapshot()
}

// List returns every stored prediction of a session in index order.
func (u *PredictionUsecase) List(ctx context.Context, sessionID string) ([]*models.StoredPrediction, error) {
	return u.store.ListPredictions(ctx, sessionID)
}

// IsNotFound reports whether err is a missing session or prediction.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrSessionNotFound) ||
		errors.Is(err, repository.ErrPredictionNotFound)
}
