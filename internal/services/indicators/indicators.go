// Package indicators provides stateless numeric functions over bounded-length
// price and volume windows.
//
// None of these functions return errors: degenerate input (short series, zero
// ranges, zero denominators) yields documented neutral values so a long
// backtest run stays resilient to isolated bad data points.
package indicators

import "math"

// SMA returns the mean of the last period elements. With fewer than period
// elements it degrades to the last element of the series.
func SMA(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	if period <= 0 || len(series) < period {
		return series[len(series)-1]
	}
	sum := 0.0
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average with multiplier 2/(period+1),
// seeded with the first element. A series of length <= 1 returns its first
// element (or 0 when empty).
func EMA(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	if len(series) == 1 || period <= 0 {
		return series[0]
	}
	mult := 2.0 / float64(period+1)
	ema := series[0]
	for _, price := range series[1:] {
		ema = price*mult + ema*(1-mult)
	}
	return ema
}

// RSI computes the relative strength index over the last period deltas.
// Insufficient history (fewer than period+1 points) returns the neutral 50;
// a window with zero average loss returns 100.
func RSI(series []float64, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return 50
	}
	var gains, losses float64
	for i := len(series) - period; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerPosition returns (price - SMA) / (2 * stddev) over the last period
// values. Insufficient history or a flat window returns 0.
func BollingerPosition(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}
	window := series[len(series)-period:]
	mean := SMA(window, period)
	sd := StdDev(window)
	if sd == 0 {
		return 0
	}
	return (series[len(series)-1] - mean) / (2 * sd)
}

// MACDNormalized returns (EMA12 - EMA26) / EMA26, or 0 with fewer than 26
// points or a zero EMA26.
func MACDNormalized(series []float64) float64 {
	if len(series) < 26 {
		return 0
	}
	ema26 := EMA(series, 26)
	if ema26 == 0 {
		return 0
	}
	return (EMA(series, 12) - ema26) / ema26
}

// Stochastic returns the %K oscillator over the last period bars.
// Insufficient or mismatched history, or a zero high-low range, returns the
// neutral 50.
func Stochastic(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period || len(highs) < period || len(lows) < period {
		return 50
	}
	maxHigh := highs[len(highs)-period]
	for _, h := range highs[len(highs)-period:] {
		if h > maxHigh {
			maxHigh = h
		}
	}
	minLow := lows[len(lows)-period]
	for _, l := range lows[len(lows)-period:] {
		if l < minLow {
			minLow = l
		}
	}
	if maxHigh == minLow {
		return 50
	}
	return (closes[n-1] - minLow) / (maxHigh - minLow) * 100
}

// StdDev returns the population standard deviation, or 0 for an empty series.
func StdDev(series []float64) float64 {
	n := len(series)
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)
	variance := 0.0
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// LinearRegressionSlope returns the least-squares slope of series against
// x = 0..n-1, or 0 with fewer than 2 points.
func LinearRegressionSlope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range series {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}
	fn := float64(n)
	den := fn*sumX2 - sumX*sumX
	if den == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / den
}

// PearsonCorrelation returns the correlation coefficient of x and y, or 0 on
// empty, mismatched-length, or zero-variance input.
func PearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	fn := float64(n)
	den := math.Sqrt(fn*sumX2-sumX*sumX) * math.Sqrt(fn*sumY2-sumY*sumY)
	if den == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / den
}
