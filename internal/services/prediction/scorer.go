// Package prediction holds the rule-based direction scorer and the running
// model-performance tracker.
package prediction

import (
	"math"
	"strconv"
	"time"

	"CandleCast/internal/domain/models"
)

// ModelVersion labels prediction results produced by this scorer.
const ModelVersion = "rules-1.2.0"

// Rule weights. A score accumulates contributions from the oversold/
// overbought oscillators, the trend components, and a small seed-derived
// perturbation, then maps onto direction, probability, and confidence.
const (
	rsiWeight        = 0.3
	bollingerWeight  = 0.2
	macdWeight       = 0.25
	stochasticWeight = 0.15
	momentumWeight   = 0.3
	noiseWeight      = 0.1
)

// Scorer converts a feature vector into a direction prediction. It is
// stateless; all randomness enters through the seed argument, so a fixed
// (features, seed) pair always yields the same direction, probability, and
// confidence.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer { return &Scorer{} }

// Score evaluates the weighted rules against features. A near-zero score
// (flat or empty window) leaves the direction to the seed perturbation alone,
// which is the intended behavior for a signal-free market, not a defect.
func (s *Scorer) Score(fv models.FeatureVector, seed string) models.PredictionResult {
	start := time.Now()
	score := 0.0

	rsi := featureAt(fv.Technical, models.TechRSI)
	switch {
	case rsi < 0.3:
		score += rsiWeight // oversold
	case rsi > 0.7:
		score -= rsiWeight // overbought
	}

	boll := featureAt(fv.Technical, models.TechBollinger)
	switch {
	case boll < -0.8:
		score += bollingerWeight
	case boll > 0.8:
		score -= bollingerWeight
	}

	score += macdWeight * featureAt(fv.Technical, models.TechMACD)

	stoch := featureAt(fv.Technical, models.TechStochastic)
	switch {
	case stoch < 0.2:
		score += stochasticWeight
	case stoch > 0.8:
		score -= stochasticWeight
	}

	score += momentumWeight * featureAt(fv.Price, models.PriceMomentum)
	score += noiseWeight * seedPerturbation(seed)

	direction := models.DirectionDown
	if score > 0 {
		direction = models.DirectionUp
	}
	abs := math.Abs(score)

	confidence := 0.5 + 0.5*abs + 0.3*fv.Meta.Confidence
	if abs > 0.1 {
		// volume confirmation
		confidence += 0.2 * math.Abs(featureAt(fv.Volume, models.VolumeRatio))
	}

	return models.PredictionResult{
		Direction:      direction,
		Probability:    clamp(0.5+abs, 0.5, 0.95),
		Confidence:     clamp(confidence, 0.1, 0.95),
		Features:       fv,
		ModelVersion:   ModelVersion,
		ProcessingTime: float64(time.Since(start).Microseconds()) / 1e3,
	}
}

// seedPerturbation maps the first 8 hex characters of seed onto [-0.5, 0.5].
// Non-hex characters (UUID hyphens) are skipped; a seed without 8 hex digits
// contributes nothing.
func seedPerturbation(seed string) float64 {
	hex := make([]byte, 0, 8)
	for i := 0; i < len(seed) && len(hex) < 8; i++ {
		c := seed[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			hex = append(hex, c)
		}
	}
	if len(hex) < 8 {
		return 0
	}
	u, err := strconv.ParseUint(string(hex), 16, 64)
	if err != nil {
		return 0
	}
	return float64(u)/float64(0xFFFFFFFF) - 0.5
}

func featureAt(group []float64, idx int) float64 {
	if idx < 0 || idx >= len(group) {
		return 0
	}
	return group[idx]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
