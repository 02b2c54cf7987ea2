package prediction

import (
	"math"
	"math/rand"
	"testing"

	"CandleCast/internal/domain/models"
)

func vectorWith(technical, price, volume []float64, quality float64) models.FeatureVector {
	return models.FeatureVector{
		Technical: technical,
		Price:     price,
		Volume:    volume,
		Temporal:  []float64{0.5, 0.5, 0.5},
		Meta:      models.FeatureMeta{Timestamp: 1717410000000, CandleIndex: 20, Confidence: quality},
	}
}

func neutralVector() models.FeatureVector {
	return vectorWith(
		[]float64{0, 0.5, 0, 0, 0.5, 0},
		[]float64{0, 0, 0.5, 0, 0},
		[]float64{0, 0, 0},
		0.8,
	)
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer()
	fv := vectorWith(
		[]float64{0.2, 0.25, -0.9, 0.4, 0.1, 0.3},
		[]float64{0.1, 0.2, 0.4, 0.1, 0.35},
		[]float64{0.6, 0.1, 0.2},
		0.7,
	)
	seed := "a1b2c3d4-e5f6-7890-abcd-ef0123456789"

	a := s.Score(fv, seed)
	b := s.Score(fv, seed)
	if a.Direction != b.Direction || a.Probability != b.Probability || a.Confidence != b.Confidence {
		t.Fatalf("scoring is not deterministic: %+v vs %+v", a, b)
	}
	if a.ModelVersion != ModelVersion {
		t.Fatalf("model version=%q want %q", a.ModelVersion, ModelVersion)
	}
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer()
	rng := rand.New(rand.NewSource(7))
	seeds := []string{
		"00000000-0000-0000-0000-000000000000",
		"ffffffff-ffff-ffff-ffff-ffffffffffff",
		"deadbeef-cafe-babe-f00d-000012345678",
	}
	for i := 0; i < 500; i++ {
		technical := make([]float64, models.TechnicalCount)
		price := make([]float64, models.PriceCount)
		volume := make([]float64, models.VolumeGroupCount)
		for j := range technical {
			technical[j] = rng.Float64()*2 - 1
		}
		for j := range price {
			price[j] = rng.Float64()*2 - 1
		}
		for j := range volume {
			volume[j] = rng.Float64()*2 - 1
		}
		fv := vectorWith(technical, price, volume, 0.1+0.9*rng.Float64())

		res := s.Score(fv, seeds[i%len(seeds)])
		if res.Probability < 0.5 || res.Probability > 0.95 {
			t.Fatalf("probability %v outside [0.5,0.95]", res.Probability)
		}
		if res.Confidence < 0.1 || res.Confidence > 0.95 {
			t.Fatalf("confidence %v outside [0.1,0.95]", res.Confidence)
		}
		if res.Direction != models.DirectionUp && res.Direction != models.DirectionDown {
			t.Fatalf("unexpected direction %q", res.Direction)
		}
	}
}

func TestScoreOversoldPushesUp(t *testing.T) {
	s := NewScorer()
	fv := neutralVector()
	fv.Technical[models.TechRSI] = 0.2        // oversold
	fv.Technical[models.TechStochastic] = 0.1 // oversold

	// zero-perturbation seed keeps the rule contributions visible
	res := s.Score(fv, "7fffffff-0000-0000-0000-000000000000")
	if res.Direction != models.DirectionUp {
		t.Fatalf("oversold vector direction=%q want UP", res.Direction)
	}
	if res.Probability <= 0.5 {
		t.Fatalf("oversold probability=%v want > 0.5", res.Probability)
	}
}

func TestScoreOverboughtPushesDown(t *testing.T) {
	s := NewScorer()
	fv := neutralVector()
	fv.Technical[models.TechRSI] = 0.9
	fv.Technical[models.TechBollinger] = 0.9
	fv.Technical[models.TechStochastic] = 0.95

	res := s.Score(fv, "7fffffff-0000-0000-0000-000000000000")
	if res.Direction != models.DirectionDown {
		t.Fatalf("overbought vector direction=%q want DOWN", res.Direction)
	}
}

func TestScoreFlatWindowIsNearCoinFlip(t *testing.T) {
	// A constant-price window produces a near-zero score; the direction then
	// follows the seed perturbation alone. That is expected behavior for a
	// signal-free market and must not be "fixed".
	s := NewScorer()
	fv := neutralVector()

	up := s.Score(fv, "ffffffff-0000-0000-0000-000000000000")
	down := s.Score(fv, "00000000-ffff-ffff-ffff-ffffffffffff")
	if up.Direction != models.DirectionUp {
		t.Fatalf("high-seed direction=%q want UP", up.Direction)
	}
	if down.Direction != models.DirectionDown {
		t.Fatalf("low-seed direction=%q want DOWN", down.Direction)
	}
	if up.Probability > 0.56 || down.Probability > 0.56 {
		t.Fatalf("flat-window probabilities should stay near 0.5, got %v and %v",
			up.Probability, down.Probability)
	}
}

func TestSeedPerturbation(t *testing.T) {
	cases := []struct {
		seed string
		want float64
	}{
		{"00000000", -0.5},
		{"ffffffff", 0.5},
		{"too-short", 0},
		{"", 0},
	}
	for _, c := range cases {
		got := seedPerturbation(c.seed)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("seedPerturbation(%q)=%v want %v", c.seed, got, c.want)
		}
	}
	// hyphens are skipped, so a UUID uses its first 8 hex digits
	if a, b := seedPerturbation("a1b2c3d4-0000"), seedPerturbation("a1b2c3d40000"); a != b {
		t.Fatalf("hyphenated seed mismatch: %v vs %v", a, b)
	}
	for _, seed := range []string{"a1b2c3d4", "01234567", "89abcdef"} {
		p := seedPerturbation(seed)
		if p < -0.5 || p > 0.5 {
			t.Fatalf("perturbation %v outside [-0.5,0.5]", p)
		}
	}
}
