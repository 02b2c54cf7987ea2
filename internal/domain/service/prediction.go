package service

import (
	"context"

	"CandleCast/internal/domain/models"
)

// Predictor produces a direction call from a candle window.
type Predictor interface {
	Predict(ctx context.Context, candles []models.Candle, index int, seed string) (*models.PredictionResult, error)
}

// FeatureExtractor builds the fixed-shape feature vector for one series
// position.
type FeatureExtractor interface {
	Extract(candles []models.Candle, index int) (models.FeatureVector, error)
}

// Backtester replays a prediction series through the trade simulator.
type Backtester interface {
	Run(ctx context.Context, cfg models.BacktestConfig, candles []models.Candle, predictions []models.PredictionResult) (*models.BacktestReport, error)
}
