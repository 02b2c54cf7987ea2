// Package backtest replays a prediction series through a market simulator
// with realistic cost modeling and produces a trade-level performance report.
package backtest

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"CandleCast/internal/domain/models"
	"CandleCast/pkg/logger"
	"CandleCast/pkg/random"
)

// Entry and exit rule parameters.
const (
	maxTradeDuration = 24 * time.Hour

	stopLossPct     = -0.02
	profitTargetPct = 0.04

	// The trailing stop arms once a trade's peak favorable excursion exceeds
	// trailingArmPct and closes the trade when the current excursion retraces
	// below trailingRetain of that peak.
	trailingArmPct = 0.01
	trailingRetain = 0.5

	minEntryConfidence      = 0.6
	minPositionValue        = 100.0
	volatileRangePct        = 0.02
	volatileMinConfidence   = 0.8
	drawdownEntryGuardShare = 0.8
)

// openPosition pairs an open trade with per-trade simulator state that does
// not belong on the domain value.
type openPosition struct {
	trade models.Trade
	// peakExcursion is the best favorable signed price change observed since
	// entry, used by the trailing stop.
	peakExcursion float64
}

// Simulator executes a single backtest run. It is stateful for the duration
// of one Run call and resets itself at the start of each invocation;
// concurrent backtests must use separate instances.
type Simulator struct {
	cfg models.BacktestConfig
	log *logger.Logger
	ids random.SeedSource

	capital     float64
	peakCapital float64
	open        []*openPosition
	closed      []models.Trade
	equity      []models.EquityCurvePoint
	halted      bool
}

// NewSimulator creates a Simulator. Zero-valued config fields are merged
// with the package defaults.
func NewSimulator(cfg models.BacktestConfig, log *logger.Logger, ids random.SeedSource) (*Simulator, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("backtest: config defaults: %w", err)
	}
	if ids == nil {
		ids = random.NewUUIDSource()
	}
	return &Simulator{cfg: cfg, log: log, ids: ids}, nil
}

// Config returns the effective (merged) run configuration.
func (s *Simulator) Config() models.BacktestConfig { return s.cfg }

// Run replays predictions over candles and returns the final report.
// candles and predictions are parallel series; an unexpected panic during
// the run is logged with the number of trades processed and returned as an
// error without a partial report.
func (s *Simulator) Run(candles []models.Candle, predictions []models.PredictionResult) (report *models.BacktestReport, err error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("backtest: empty candle series")
	}
	if len(predictions) != len(candles) {
		return nil, fmt.Errorf("backtest: got %d predictions for %d candles", len(predictions), len(candles))
	}

	s.reset()

	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Error("backtest run aborted",
					logger.Any("panic", r),
					logger.Int("trades_processed", len(s.closed)))
			}
			report = nil
			err = fmt.Errorf("backtest: run aborted after %d closed trades: %v", len(s.closed), r)
		}
	}()

	if s.log != nil {
		s.log.Info("backtest run started",
			logger.Int("candles", len(candles)),
			logger.Float64("initial_capital", s.cfg.InitialCapital))
	}

	for i := range candles {
		candle := candles[i]

		s.evaluateExits(candle)

		if i+1 < len(candles) {
			s.evaluateEntry(candle, candles[i+1], predictions[i])
		}

		s.markEquity(candle)

		if s.drawdown() > s.cfg.MaxDrawdown {
			s.halted = true
			if s.log != nil {
				s.log.Warn("backtest halted by drawdown circuit breaker",
					logger.Int("candle_index", candle.Index),
					logger.Float64("drawdown", s.drawdown()))
			}
			s.forceCloseAll(candle, models.ExitDrawdownHalt)
			break
		}
	}

	s.forceCloseAll(candles[len(candles)-1], models.ExitEndOfData)

	rep := BuildReport(s.cfg, s.closed, s.equity, s.capital, s.halted)
	if s.log != nil {
		s.log.Info("backtest run finished",
			logger.Int("trades", rep.TotalTrades),
			logger.Float64("final_capital", rep.FinalCapital),
			logger.Float64("total_pnl", rep.TotalPnL),
			logger.Bool("halted", rep.Halted))
	}
	return rep, nil
}

func (s *Simulator) reset() {
	s.capital = s.cfg.InitialCapital
	s.peakCapital = s.cfg.InitialCapital
	s.open = nil
	s.closed = nil
	s.equity = nil
	s.halted = false
}

// evaluateExits closes open trades, in the order they were opened, against
// the current candle: time limit first, then stop loss and profit target,
// then the trailing stop.
func (s *Simulator) evaluateExits(candle models.Candle) {
	remaining := s.open[:0]
	for _, pos := range s.open {
		change := signedChange(pos.trade, candle.Close)
		if change > pos.peakExcursion {
			pos.peakExcursion = change
		}

		reason := ""
		switch {
		case candle.Timestamp-pos.trade.EntryTime > maxTradeDuration.Milliseconds():
			reason = models.ExitTimeLimit
		case change <= stopLossPct:
			reason = models.ExitStopLoss
		case change >= profitTargetPct:
			reason = models.ExitProfitTarget
		case pos.peakExcursion > trailingArmPct && change < pos.peakExcursion*trailingRetain:
			reason = models.ExitTrailingStop
		}

		if reason == "" {
			remaining = append(remaining, pos)
			continue
		}
		s.closeTrade(pos, candle, reason)
	}
	s.open = remaining
}

// evaluateEntry opens at most one position per candle, filled at the next
// candle's open.
func (s *Simulator) evaluateEntry(candle, next models.Candle, pred models.PredictionResult) {
	if pred.Confidence < minEntryConfidence {
		return
	}
	if len(s.open) >= s.cfg.MaxConcurrentTrades {
		return
	}
	positionValue := s.capital * s.cfg.PositionSize
	if positionValue < minPositionValue {
		return
	}
	if s.drawdown() >= drawdownEntryGuardShare*s.cfg.MaxDrawdown {
		return
	}
	if candle.Close > 0 && candle.Range()/candle.Close > volatileRangePct && pred.Confidence <= volatileMinConfidence {
		return
	}

	direction := models.TradeShort
	if pred.Direction == models.DirectionUp {
		direction = models.TradeLong
	}

	// entries pay the slippage spread against the trader
	entryPrice := next.Open * (1 + s.cfg.Slippage)
	if direction == models.TradeShort {
		entryPrice = next.Open * (1 - s.cfg.Slippage)
	}
	if entryPrice <= 0 {
		return
	}

	commission := positionValue * s.cfg.Commission
	slippage := positionValue * s.cfg.Slippage
	s.capital -= commission + slippage

	trade := models.Trade{
		ID:         s.ids.Seed(),
		EntryTime:  next.Timestamp,
		EntryPrice: entryPrice,
		Direction:  direction,
		Quantity:   positionValue / entryPrice,
		Commission: commission,
		Slippage:   slippage,
		Status:     models.TradeOpen,
		Prediction: pred,
	}
	s.open = append(s.open, &openPosition{trade: trade})

	if s.log != nil {
		s.log.Info("trade opened",
			logger.String("trade_id", trade.ID),
			logger.String("direction", string(direction)),
			logger.Float64("entry_price", trade.EntryPrice),
			logger.Float64("quantity", trade.Quantity))
	}
}

// closeTrade settles a position against the candle close and appends the
// closed trade value to the ledger. Exit-side costs are netted into P&L;
// entry-side costs were debited from capital when the trade opened.
func (s *Simulator) closeTrade(pos *openPosition, candle models.Candle, reason string) {
	t := pos.trade

	exitPrice := candle.Close * (1 - s.cfg.Slippage)
	if t.Direction == models.TradeShort {
		exitPrice = candle.Close * (1 + s.cfg.Slippage)
	}

	gross := (exitPrice - t.EntryPrice) * t.Quantity
	if t.Direction == models.TradeShort {
		gross = (t.EntryPrice - exitPrice) * t.Quantity
	}

	exitNotional := exitPrice * t.Quantity
	exitCommission := exitNotional * s.cfg.Commission
	exitSlippage := exitNotional * s.cfg.Slippage
	s.capital += gross - exitCommission - exitSlippage

	closed := t
	closed.ExitTime = candle.Timestamp
	closed.ExitPrice = exitPrice
	closed.Commission = t.Commission + exitCommission
	closed.Slippage = t.Slippage + exitSlippage
	closed.PnL = gross - closed.Commission - closed.Slippage
	if notional := closed.Notional(); notional > 0 {
		closed.PnLPct = closed.PnL / notional
	}
	closed.Status = models.TradeClosed
	closed.ExitReason = reason
	s.closed = append(s.closed, closed)

	if s.log != nil {
		s.log.Info("trade closed",
			logger.String("trade_id", closed.ID),
			logger.String("reason", reason),
			logger.Float64("exit_price", closed.ExitPrice),
			logger.Float64("pnl", closed.PnL))
	}
}

func (s *Simulator) forceCloseAll(candle models.Candle, reason string) {
	for _, pos := range s.open {
		s.closeTrade(pos, candle, reason)
	}
	s.open = nil
}

// markEquity appends one equity-curve point per processed candle. Equity is
// closed capital only; unrealized P&L of open positions is intentionally not
// included.
func (s *Simulator) markEquity(candle models.Candle) {
	if s.capital > s.peakCapital {
		s.peakCapital = s.capital
	}
	s.equity = append(s.equity, models.EquityCurvePoint{
		Timestamp: candle.Timestamp,
		Equity:    s.capital,
		Drawdown:  s.drawdown(),
	})
}

func (s *Simulator) drawdown() float64 {
	if s.peakCapital <= 0 {
		return 0
	}
	return (s.peakCapital - s.capital) / s.peakCapital
}

// signedChange is the fractional price change relative to entry, positive
// when the move favors the position.
func signedChange(t models.Trade, price float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	change := (price - t.EntryPrice) / t.EntryPrice
	if t.Direction == models.TradeShort {
		change = -change
	}
	return change
}
