package features

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"CandleCast/internal/domain/models"
)

func syntheticCandles(n int, step float64) []models.Candle {
	base := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		next := price * (1 + step)
		hi := math.Max(price, next) * 1.001
		lo := math.Min(price, next) * 0.999
		out[i] = models.Candle{
			Index:     i,
			Timestamp: base.Add(time.Duration(i) * time.Minute).UnixMilli(),
			Open:      price,
			High:      hi,
			Low:       lo,
			Close:     next,
			Volume:    1000 + float64(i),
		}
		price = next
	}
	return out
}

func TestExtractInsufficientData(t *testing.T) {
	e := NewExtractor()
	candles := syntheticCandles(2, 0.01)
	_, err := e.Extract(candles, 1)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := e.Extract(candles, 5); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestExtractShape(t *testing.T) {
	e := NewExtractor()
	candles := syntheticCandles(30, 0.01)
	fv, err := e.Extract(candles, 29)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(fv.Technical) != models.TechnicalCount {
		t.Fatalf("technical len=%d want %d", len(fv.Technical), models.TechnicalCount)
	}
	if len(fv.Price) != models.PriceCount {
		t.Fatalf("price len=%d want %d", len(fv.Price), models.PriceCount)
	}
	if len(fv.Volume) != models.VolumeGroupCount {
		t.Fatalf("volume len=%d want %d", len(fv.Volume), models.VolumeGroupCount)
	}
	if len(fv.Temporal) != models.TemporalCount {
		t.Fatalf("temporal len=%d want %d", len(fv.Temporal), models.TemporalCount)
	}
	if fv.Meta.CandleIndex != 29 {
		t.Fatalf("meta index=%d want 29", fv.Meta.CandleIndex)
	}
	if fv.Meta.Timestamp != candles[29].Timestamp {
		t.Fatalf("meta timestamp mismatch")
	}
	for i, v := range fv.Temporal {
		if v < 0 || v > 1 {
			t.Fatalf("temporal[%d]=%v outside [0,1]", i, v)
		}
	}
	for _, group := range [][]float64{fv.Technical, fv.Price, fv.Volume} {
		for i, v := range group {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("feature %d is not finite: %v", i, v)
			}
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()
	candles := syntheticCandles(25, 0.005)
	a, err := e.Extract(candles, 24)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	b, err := e.Extract(candles, 24)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("extraction is not deterministic")
	}
}

func TestExtractUptrendMomentum(t *testing.T) {
	e := NewExtractor()
	candles := syntheticCandles(30, 0.01)
	fv, err := e.Extract(candles, 29)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fv.Price[models.PriceMomentum] <= 0 {
		t.Fatalf("uptrend momentum=%v want > 0", fv.Price[models.PriceMomentum])
	}
	if fv.Technical[models.TechSMADistance] <= 0 {
		t.Fatalf("uptrend SMA distance=%v want > 0", fv.Technical[models.TechSMADistance])
	}
}

func TestQualityConfidence(t *testing.T) {
	clean := syntheticCandles(10, 0.001)
	fvClean := mustExtract(t, clean, 9)
	if !almost(fvClean.Meta.Confidence, 0.8) {
		t.Fatalf("clean confidence=%v want 0.8", fvClean.Meta.Confidence)
	}

	// one zero-volume candle: 0.8 * 0.9
	zeroVol := syntheticCandles(10, 0.001)
	zeroVol[5].Volume = 0
	fvZero := mustExtract(t, zeroVol, 9)
	if !almost(fvZero.Meta.Confidence, 0.8*0.9) {
		t.Fatalf("zero-volume confidence=%v want %v", fvZero.Meta.Confidence, 0.8*0.9)
	}

	// one >5% gap between close and next open: 0.8 * 0.8
	gapped := syntheticCandles(10, 0.001)
	gapped[5].Open = gapped[4].Close * 1.10
	fvGap := mustExtract(t, gapped, 9)
	if !almost(fvGap.Meta.Confidence, 0.8*0.8) {
		t.Fatalf("gapped confidence=%v want %v", fvGap.Meta.Confidence, 0.8*0.8)
	}

	// heavy damage floors at 0.1
	ruined := syntheticCandles(20, 0.001)
	for i := range ruined {
		ruined[i].Volume = 0
		if i > 0 {
			ruined[i].Open = ruined[i-1].Close * 1.2
		}
	}
	fvRuined := mustExtract(t, ruined, 19)
	if fvRuined.Meta.Confidence != 0.1 {
		t.Fatalf("ruined confidence=%v want floor 0.1", fvRuined.Meta.Confidence)
	}
}

func mustExtract(t *testing.T, candles []models.Candle, idx int) models.FeatureVector {
	t.Helper()
	fv, err := NewExtractor().Extract(candles, idx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return fv
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
