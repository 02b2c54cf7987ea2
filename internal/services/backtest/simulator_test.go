package backtest

import (
	"math"
	"testing"

	"CandleCast/internal/domain/models"
	"CandleCast/pkg/random"
)

const minuteMs = int64(60_000)

func testConfig() models.BacktestConfig {
	return models.BacktestConfig{
		InitialCapital:      10_000,
		PositionSize:        0.1,
		Commission:          0.001,
		Slippage:            0.0005,
		MaxDrawdown:         0.2,
		MaxConcurrentTrades: 3,
		RiskFreeRate:        0.02,
	}
}

// uptrendCandles produces one-minute candles whose close rises 1% per step.
func uptrendCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	open := 100.0
	for i := 0; i < n; i++ {
		close := open * 1.01
		candles[i] = models.Candle{
			Index:     i,
			Timestamp: int64(i) * minuteMs,
			Open:      open,
			High:      close * 1.0005,
			Low:       open * 0.9995,
			Close:     close,
			Volume:    1000,
		}
		open = close
	}
	return candles
}

func flatCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Index:     i,
			Timestamp: int64(i) * minuteMs,
			Open:      100,
			High:      100,
			Low:       100,
			Close:     100,
			Volume:    1000,
		}
	}
	return candles
}

// crashCandles climbs for warmup steps then drops 10% per candle.
func crashCandles(n, warmup int) []models.Candle {
	candles := make([]models.Candle, n)
	open := 100.0
	for i := 0; i < n; i++ {
		factor := 1.005
		if i >= warmup {
			factor = 0.90
		}
		close := open * factor
		high := open
		low := close
		if close > open {
			high, low = close, open
		}
		candles[i] = models.Candle{
			Index:     i,
			Timestamp: int64(i) * minuteMs,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000,
		}
		open = close
	}
	return candles
}

func uniformPredictions(n int, dir models.Direction, confidence float64) []models.PredictionResult {
	preds := make([]models.PredictionResult, n)
	for i := range preds {
		preds[i] = models.PredictionResult{
			Direction:   dir,
			Probability: 0.7,
			Confidence:  confidence,
		}
	}
	return preds
}

func newTestSimulator(t *testing.T, cfg models.BacktestConfig) *Simulator {
	t.Helper()
	sim, err := NewSimulator(cfg, nil, random.NewUUIDSource())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

func TestSimulatorDefaults(t *testing.T) {
	sim := newTestSimulator(t, models.BacktestConfig{})
	cfg := sim.Config()
	if cfg.InitialCapital != 10_000 {
		t.Fatalf("default initial capital = %v, want 10000", cfg.InitialCapital)
	}
	if cfg.MaxConcurrentTrades != 3 {
		t.Fatalf("default max concurrent trades = %d, want 3", cfg.MaxConcurrentTrades)
	}
	if cfg.MaxDrawdown != 0.2 {
		t.Fatalf("default max drawdown = %v, want 0.2", cfg.MaxDrawdown)
	}
}

func TestSimulatorInputValidation(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	if _, err := sim.Run(nil, nil); err == nil {
		t.Fatalf("expected error for empty candle series")
	}
	candles := uptrendCandles(10)
	if _, err := sim.Run(candles, uniformPredictions(5, models.DirectionUp, 0.9)); err == nil {
		t.Fatalf("expected error for mismatched prediction series")
	}
}

func TestSimulatorTradeLifecycle(t *testing.T) {
	cfg := testConfig()
	sim := newTestSimulator(t, cfg)
	candles := uptrendCandles(30)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionUp, 0.9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalTrades == 0 {
		t.Fatalf("expected trades in an uptrend with confident predictions")
	}

	seen := make(map[string]bool, len(rep.Trades))
	for _, tr := range rep.Trades {
		if tr.Status != models.TradeClosed {
			t.Fatalf("trade %s left in status %q", tr.ID, tr.Status)
		}
		if tr.ExitReason == "" {
			t.Fatalf("trade %s closed without exit reason", tr.ID)
		}
		if tr.ExitTime < tr.EntryTime {
			t.Fatalf("trade %s exits before entry", tr.ID)
		}
		if seen[tr.ID] {
			t.Fatalf("duplicate trade id %s", tr.ID)
		}
		seen[tr.ID] = true
	}
}

func TestSimulatorCapitalConservation(t *testing.T) {
	cfg := testConfig()
	sim := newTestSimulator(t, cfg)
	candles := uptrendCandles(30)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionUp, 0.9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := cfg.InitialCapital + rep.TotalPnL
	if math.Abs(rep.FinalCapital-want) > 1e-6 {
		t.Fatalf("final capital = %v, want initial + total pnl = %v", rep.FinalCapital, want)
	}
}

func TestSimulatorUptrendProfitable(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	candles := uptrendCandles(30)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionUp, 0.9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalPnL <= 0 {
		t.Fatalf("total pnl = %v, want positive in a steady uptrend", rep.TotalPnL)
	}
	if rep.WinRate <= 0.5 {
		t.Fatalf("win rate = %v, want > 0.5", rep.WinRate)
	}
	if len(rep.EquityCurve) != len(candles) {
		t.Fatalf("equity curve has %d points for %d candles", len(rep.EquityCurve), len(candles))
	}
	if rep.Halted {
		t.Fatalf("uptrend run should not trip the drawdown halt")
	}
}

func TestSimulatorLowConfidenceNoEntries(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	candles := uptrendCandles(30)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionUp, 0.5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.TotalTrades != 0 {
		t.Fatalf("got %d trades below the confidence threshold, want 0", rep.TotalTrades)
	}
	if rep.FinalCapital != sim.Config().InitialCapital {
		t.Fatalf("capital changed without trades: %v", rep.FinalCapital)
	}
}

func TestSimulatorFlatSeriesFewTrades(t *testing.T) {
	cfg := testConfig()
	sim := newTestSimulator(t, cfg)
	candles := flatCandles(30)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionDown, 0.9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Nothing ever triggers an exit rule in a flat market, so the open-trade
	// cap bounds the total and every trade costs only fees.
	if rep.TotalTrades > cfg.MaxConcurrentTrades {
		t.Fatalf("flat series produced %d trades, cap is %d", rep.TotalTrades, cfg.MaxConcurrentTrades)
	}
	for _, tr := range rep.Trades {
		if tr.ExitReason != models.ExitEndOfData {
			t.Fatalf("flat-market trade closed with reason %q", tr.ExitReason)
		}
		if math.Abs(tr.PnL) > 10 {
			t.Fatalf("flat-market trade pnl = %v, want only fee drag", tr.PnL)
		}
	}
}

func TestSimulatorDrawdownHalt(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDrawdown = 0.05
	cfg.PositionSize = 0.3
	sim := newTestSimulator(t, cfg)
	candles := crashCandles(30, 5)

	rep, err := sim.Run(candles, uniformPredictions(30, models.DirectionUp, 0.9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Halted {
		t.Fatalf("expected the drawdown circuit breaker to fire")
	}
	if len(rep.EquityCurve) >= len(candles) {
		t.Fatalf("halted run processed all %d candles", len(candles))
	}
	if rep.FinalCapital >= cfg.InitialCapital {
		t.Fatalf("final capital = %v after a crash, want a loss", rep.FinalCapital)
	}
	for _, tr := range rep.Trades {
		if tr.Status != models.TradeClosed {
			t.Fatalf("trade %s left open after halt", tr.ID)
		}
	}
}

func TestSimulatorResetBetweenRuns(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	candles := uptrendCandles(30)
	preds := uniformPredictions(30, models.DirectionUp, 0.9)

	first, err := sim.Run(candles, preds)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := sim.Run(candles, preds)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.TotalTrades != second.TotalTrades {
		t.Fatalf("runs diverged: %d vs %d trades", first.TotalTrades, second.TotalTrades)
	}
	if math.Abs(first.FinalCapital-second.FinalCapital) > 1e-9 {
		t.Fatalf("runs diverged: final capital %v vs %v", first.FinalCapital, second.FinalCapital)
	}
}
