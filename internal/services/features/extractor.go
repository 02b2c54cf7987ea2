// Package features turns sliding windows of OHLCV candles into fixed-shape,
// normalized feature vectors for the prediction scorer.
package features

import (
	"errors"
	"fmt"
	"math"

	"CandleCast/internal/domain/models"
	"CandleCast/internal/services/indicators"
)

// ErrInsufficientData is returned when the lookback window holds fewer than
// MinWindow candles. The caller decides whether to skip or abort; extraction
// is never retried internally.
var ErrInsufficientData = errors.New("features: insufficient candle history")

const (
	// MinWindow is the smallest window extraction will accept.
	MinWindow = 3
	// DefaultLookback bounds the window length ending at the current index.
	DefaultLookback = 20

	gapThreshold = 0.05 // inter-candle gap treated as a data-quality defect
)

// Extractor computes feature vectors from candle series. It is stateless and
// safe for concurrent use across independent series.
type Extractor struct {
	lookback int
}

// NewExtractor creates an Extractor with the default lookback window.
func NewExtractor() *Extractor {
	return &Extractor{lookback: DefaultLookback}
}

// Extract computes the feature vector for the candle at index. The window is
// the last min(lookback, len(candles)) candles ending at index.
func (e *Extractor) Extract(candles []models.Candle, index int) (models.FeatureVector, error) {
	if index < 0 || index >= len(candles) {
		return models.FeatureVector{}, fmt.Errorf("features: index %d out of range [0,%d)", index, len(candles))
	}
	lookback := e.lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if len(candles) < lookback {
		lookback = len(candles)
	}
	start := index - lookback + 1
	if start < 0 {
		start = 0
	}
	window := candles[start : index+1]
	if len(window) < MinWindow {
		return models.FeatureVector{}, fmt.Errorf("%w: have %d candles at index %d, need %d",
			ErrInsufficientData, len(window), index, MinWindow)
	}

	closes := make([]float64, len(window))
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, c := range window {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}
	current := window[len(window)-1]

	fv := models.FeatureVector{
		Technical: technicalFeatures(closes, highs, lows),
		Price:     priceFeatures(window, closes),
		Volume:    volumeFeatures(closes, volumes),
		Temporal:  temporalFeatures(current),
		Meta: models.FeatureMeta{
			Timestamp:   current.Timestamp,
			CandleIndex: current.Index,
			Confidence:  qualityConfidence(window),
		},
	}
	return fv, nil
}

// technicalFeatures bounds unbounded ratios with tanh so downstream linear
// scoring needs no per-feature calibration.
func technicalFeatures(closes, highs, lows []float64) []float64 {
	sma5 := indicators.SMA(closes, 5)
	sma10 := indicators.SMA(closes, 10)
	close := closes[len(closes)-1]

	smaRatio := 0.0
	smaDistance := 0.0
	if sma10 != 0 {
		smaRatio = math.Tanh(sma5/sma10 - 1)
		smaDistance = math.Tanh(10 * (close - sma10) / sma10)
	}

	return []float64{
		smaRatio,
		indicators.RSI(closes, 14) / 100,
		indicators.BollingerPosition(closes, 20),
		math.Tanh(indicators.MACDNormalized(closes)),
		indicators.Stochastic(highs, lows, closes, 14) / 100,
		smaDistance,
	}
}

func priceFeatures(window []models.Candle, closes []float64) []float64 {
	returns := ComputeLogReturns(closes)

	bodySum, shadowSum := 0.0, 0.0
	for _, c := range window {
		r := c.Range()
		if r <= 0 {
			continue
		}
		bodySum += math.Abs(c.Close-c.Open) / r
		upper := c.High - math.Max(c.Open, c.Close)
		lower := math.Min(c.Open, c.Close) - c.Low
		shadowSum += (upper - lower) / r
	}
	n := float64(len(window))
	meanBody := bodySum / n
	meanShadow := shadowSum / n

	meanReturn, sdReturn := 0.0, 0.0
	if len(returns) > 0 {
		for _, r := range returns {
			meanReturn += r
		}
		meanReturn /= float64(len(returns))
		sdReturn = indicators.StdDev(returns)
	}

	recent := 0.0
	for i := len(returns) - 3; i < len(returns); i++ {
		if i >= 0 {
			recent += returns[i]
		}
	}

	return []float64{
		math.Tanh(100 * meanReturn),
		math.Tanh(10 * sdReturn),
		meanBody,
		math.Tanh(meanShadow),
		math.Tanh(50 * recent),
	}
}

func volumeFeatures(closes, volumes []float64) []float64 {
	meanVolume := 0.0
	for _, v := range volumes {
		meanVolume += v
	}
	meanVolume /= float64(len(volumes))

	ratio := 0.0
	current := volumes[len(volumes)-1]
	if meanVolume > 0 && current > 0 {
		ratio = math.Tanh(math.Log(current / meanVolume))
	}

	return []float64{
		ratio,
		math.Tanh(10 * indicators.LinearRegressionSlope(volumes)),
		math.Tanh(indicators.PearsonCorrelation(closes, volumes)),
	}
}

func temporalFeatures(c models.Candle) []float64 {
	ts := c.Time()
	return []float64{
		float64(ts.Hour()) / 23,
		float64(ts.Weekday()) / 6,
		float64(int(ts.Month())-1) / 11,
	}
}

// qualityConfidence penalizes windows with price gaps and missing volume.
// Starts at 0.8, x0.8 per consecutive-candle gap above 5%, x0.9 per
// zero-volume candle, floored at 0.1.
func qualityConfidence(window []models.Candle) float64 {
	confidence := 0.8
	for i, c := range window {
		if i > 0 {
			prev := window[i-1].Close
			if prev > 0 && math.Abs(c.Open-prev)/prev > gapThreshold {
				confidence *= 0.8
			}
		}
		if c.Volume == 0 {
			confidence *= 0.9
		}
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

// ComputeLogReturns computes per-step log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(closes)-1, or nil if insufficient data.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		cur := closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}
