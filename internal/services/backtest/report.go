package backtest

import (
	"math"
	"sort"

	"CandleCast/internal/domain/models"
)

// tradingPeriodsPerYear annualizes the risk-free rate down to the per-trade
// return horizon.
const tradingPeriodsPerYear = 252

// BuildReport aggregates a closed-trade ledger and equity curve into a
// BacktestReport. It is a pure function of its inputs; every ratio degrades
// to 0 when its denominator degenerates rather than dividing by zero.
func BuildReport(cfg models.BacktestConfig, trades []models.Trade, equity []models.EquityCurvePoint, finalCapital float64, halted bool) *models.BacktestReport {
	rep := &models.BacktestReport{
		TotalTrades:    len(trades),
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   finalCapital,
		Halted:         halted,
		Trades:         trades,
		EquityCurve:    equity,
	}

	for _, p := range equity {
		if p.Drawdown > rep.MaxDrawdown {
			rep.MaxDrawdown = p.Drawdown
		}
	}

	if len(trades) == 0 {
		return rep
	}

	returns := make([]float64, 0, len(trades))
	var winSum, lossSum float64
	var totalDurationMs, maxDurationMs int64
	for _, t := range trades {
		rep.TotalPnL += t.PnL
		rep.TotalCommission += t.Commission
		rep.TotalSlippage += t.Slippage
		returns = append(returns, t.PnLPct)

		if t.PnL > 0 {
			rep.WinningTrades++
			winSum += t.PnL
			if t.PnL > rep.LargestWin {
				rep.LargestWin = t.PnL
			}
		} else {
			rep.LosingTrades++
			lossSum += t.PnL
			if t.PnL < rep.LargestLoss {
				rep.LargestLoss = t.PnL
			}
		}

		d := t.DurationMs()
		totalDurationMs += d
		if d > maxDurationMs {
			maxDurationMs = d
		}
	}

	rep.WinRate = float64(rep.WinningTrades) / float64(rep.TotalTrades)
	if cfg.InitialCapital > 0 {
		rep.TotalPnLPct = rep.TotalPnL / cfg.InitialCapital
	}
	if rep.WinningTrades > 0 {
		rep.AverageWin = winSum / float64(rep.WinningTrades)
	}
	if rep.LosingTrades > 0 {
		rep.AverageLoss = lossSum / float64(rep.LosingTrades)
	}
	if rep.AverageLoss != 0 {
		rep.ProfitFactor = -rep.AverageWin / rep.AverageLoss
	}

	const msPerHour = 1000 * 60 * 60
	rep.AvgTradeDurationHours = float64(totalDurationMs) / float64(rep.TotalTrades) / msPerHour
	rep.MaxTradeDurationHours = float64(maxDurationMs) / msPerHour

	rep.SharpeRatio, rep.SortinoRatio = riskAdjustedRatios(returns, cfg.RiskFreeRate)
	if rep.MaxDrawdown > 0 {
		rep.CalmarRatio = rep.TotalPnLPct / rep.MaxDrawdown
	}
	rep.VaR95 = valueAtRisk(returns, 0.95)
	rep.VaR99 = valueAtRisk(returns, 0.99)
	rep.MaxConsecutiveWins, rep.MaxConsecutiveLosses = streaks(trades)

	return rep
}

// riskAdjustedRatios computes the Sharpe and Sortino ratios over per-trade
// returns against the per-period risk-free rate.
func riskAdjustedRatios(returns []float64, annualRiskFree float64) (sharpe, sortino float64) {
	n := len(returns)
	if n == 0 {
		return 0, 0
	}
	rf := annualRiskFree / tradingPeriodsPerYear

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var variance, downside float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if r < rf {
			e := r - rf
			downside += e * e
		}
	}
	variance /= float64(n)
	downside = math.Sqrt(downside / float64(n))

	if sd := math.Sqrt(variance); sd > 0 {
		sharpe = (mean - rf) / sd
	}
	if downside > 0 {
		sortino = (mean - rf) / downside
	}
	return sharpe, sortino
}

// valueAtRisk returns the empirical loss at the given confidence level as a
// positive number. It can go negative when even the worst tail return is a
// profit.
func valueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * (1 - confidence))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return -sorted[idx]
}

// streaks returns the longest consecutive winning and losing runs in ledger
// order.
func streaks(trades []models.Trade) (maxWins, maxLosses int) {
	var wins, losses int
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			losses = 0
		} else {
			losses++
			wins = 0
		}
		if wins > maxWins {
			maxWins = wins
		}
		if losses > maxLosses {
			maxLosses = losses
		}
	}
	return maxWins, maxLosses
}
