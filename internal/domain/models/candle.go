package models

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV bar inside a session series.
// Timestamp is epoch milliseconds; Index is the position within the series
// (insertion order equals chronological order).
type Candle struct {
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the candle timestamp as time.Time (UTC).
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// Range returns high minus low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Validate enforces the OHLCV invariant low <= min(open,close) <= max(open,close) <= high
// with positive finite prices. The algorithmic core assumes candles passed this check
// at the ingestion boundary and does not re-validate.
func (c Candle) Validate() error {
	if c.Timestamp <= 0 {
		return fmt.Errorf("candle: timestamp must be positive, got %d", c.Timestamp)
	}
	for name, v := range map[string]float64{
		"open": c.Open, "high": c.High, "low": c.Low, "close": c.Close,
	} {
		if v <= 0 || isNaNOrInf(v) {
			return fmt.Errorf("candle: %s must be a positive finite number, got %v", name, v)
		}
	}
	if c.Volume < 0 || isNaNOrInf(c.Volume) {
		return fmt.Errorf("candle: volume must be a non-negative finite number, got %v", c.Volume)
	}
	lo, hi := c.Open, c.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if c.Low > lo || hi > c.High {
		return fmt.Errorf("candle: invariant low <= open,close <= high violated (o=%v h=%v l=%v c=%v)",
			c.Open, c.High, c.Low, c.Close)
	}
	return nil
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e308 || v < -1e308
}

// Session is a journal series: a trading pair plus timeframe plus start date.
type Session struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	StartedAt time.Time `json:"started_at"`
	CreatedAt time.Time `json:"created_at"`
}
