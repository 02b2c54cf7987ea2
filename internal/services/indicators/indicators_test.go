package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	cases := []struct {
		name   string
		series []float64
		period int
		want   float64
	}{
		{"full window", []float64{1, 2, 3, 4}, 2, 3.5},
		{"whole series", []float64{2, 4, 6}, 3, 4},
		{"short series degrades to last", []float64{5, 7}, 10, 7},
		{"single", []float64{5}, 3, 5},
		{"empty", nil, 3, 0},
	}
	for _, c := range cases {
		if got := SMA(c.series, c.period); !almostEqual(got, c.want) {
			t.Fatalf("%s: SMA=%v want %v", c.name, got, c.want)
		}
	}
}

func TestEMA(t *testing.T) {
	if got := EMA([]float64{2, 4}, 3); !almostEqual(got, 3) {
		t.Fatalf("EMA=%v want 3", got)
	}
	if got := EMA([]float64{9}, 5); !almostEqual(got, 9) {
		t.Fatalf("single-element EMA=%v want 9", got)
	}
	if got := EMA(nil, 5); got != 0 {
		t.Fatalf("empty EMA=%v want 0", got)
	}
	// EMA of a constant series stays at that constant
	flat := []float64{3, 3, 3, 3, 3, 3}
	if got := EMA(flat, 4); !almostEqual(got, 3) {
		t.Fatalf("flat EMA=%v want 3", got)
	}
}

func TestRSIDegenerateBranches(t *testing.T) {
	// Insufficient history is neutral 50.
	if got := RSI([]float64{1, 2}, 14); got != 50 {
		t.Fatalf("short RSI=%v want 50", got)
	}
	// A flat series has zero average loss, which by definition is RSI 100,
	// not 50.
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 42
	}
	if got := RSI(flat, 14); got != 100 {
		t.Fatalf("flat RSI=%v want 100", got)
	}
	// Monotone decline has zero average gain.
	down := []float64{10, 9, 8, 7, 6, 5}
	if got := RSI(down, 5); !almostEqual(got, 0) {
		t.Fatalf("downtrend RSI=%v want 0", got)
	}
}

func TestRSIMixed(t *testing.T) {
	// deltas +1 and -0.5 over period 2: rs = 0.5/0.25 = 2 -> RSI 66.67
	got := RSI([]float64{1, 2, 1.5}, 2)
	want := 100 - 100/3.0
	if !almostEqual(got, want) {
		t.Fatalf("RSI=%v want %v", got, want)
	}
}

func TestBollingerPosition(t *testing.T) {
	if got := BollingerPosition([]float64{1, 2}, 5); got != 0 {
		t.Fatalf("short series position=%v want 0", got)
	}
	if got := BollingerPosition([]float64{4, 4, 4, 4}, 4); got != 0 {
		t.Fatalf("flat series position=%v want 0", got)
	}
	got := BollingerPosition([]float64{1, 2, 3}, 3)
	sd := math.Sqrt(2.0 / 3.0)
	want := (3.0 - 2.0) / (2 * sd)
	if !almostEqual(got, want) {
		t.Fatalf("position=%v want %v", got, want)
	}
}

func TestMACDNormalized(t *testing.T) {
	if got := MACDNormalized(make([]float64, 25)); got != 0 {
		t.Fatalf("short series MACD=%v want 0", got)
	}
	// Rising series: short EMA above long EMA, so MACD is positive.
	series := make([]float64, 40)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	if got := MACDNormalized(series); got <= 0 {
		t.Fatalf("uptrend MACD=%v want > 0", got)
	}
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 50
	}
	if got := MACDNormalized(flat); !almostEqual(got, 0) {
		t.Fatalf("flat MACD=%v want 0", got)
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{2, 3}
	lows := []float64{1, 1}
	closes := []float64{1.5, 2.5}
	if got := Stochastic(highs, lows, closes, 2); !almostEqual(got, 75) {
		t.Fatalf("stochastic=%v want 75", got)
	}
	// zero range and insufficient history are both neutral
	if got := Stochastic([]float64{2, 2}, []float64{2, 2}, []float64{2, 2}, 2); got != 50 {
		t.Fatalf("zero-range stochastic=%v want 50", got)
	}
	if got := Stochastic(highs, lows, closes, 5); got != 50 {
		t.Fatalf("short stochastic=%v want 50", got)
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev(nil); got != 0 {
		t.Fatalf("empty stddev=%v want 0", got)
	}
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(got, 2) {
		t.Fatalf("stddev=%v want 2", got)
	}
}

func TestLinearRegressionSlope(t *testing.T) {
	if got := LinearRegressionSlope([]float64{5}); got != 0 {
		t.Fatalf("single-point slope=%v want 0", got)
	}
	if got := LinearRegressionSlope([]float64{1, 3, 5}); !almostEqual(got, 2) {
		t.Fatalf("slope=%v want 2", got)
	}
	if got := LinearRegressionSlope([]float64{7, 7, 7}); !almostEqual(got, 0) {
		t.Fatalf("flat slope=%v want 0", got)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if got := PearsonCorrelation(x, []float64{2, 4, 6, 8}); !almostEqual(got, 1) {
		t.Fatalf("corr=%v want 1", got)
	}
	if got := PearsonCorrelation(x, []float64{8, 6, 4, 2}); !almostEqual(got, -1) {
		t.Fatalf("corr=%v want -1", got)
	}
	if got := PearsonCorrelation(x, []float64{1, 2}); got != 0 {
		t.Fatalf("mismatched corr=%v want 0", got)
	}
	if got := PearsonCorrelation(x, []float64{5, 5, 5, 5}); got != 0 {
		t.Fatalf("flat corr=%v want 0", got)
	}
}
