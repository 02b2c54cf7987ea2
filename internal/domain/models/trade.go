package models

// TradeDirection is the side of a simulated position.
type TradeDirection string

const (
	TradeLong  TradeDirection = "long"
	TradeShort TradeDirection = "short"
)

// TradeStatus is the lifecycle state of a simulated trade.
// The only transition is open -> closed; closed is terminal.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// Exit reasons recorded on closed trades.
const (
	ExitTimeLimit    = "time_limit"
	ExitStopLoss     = "stop_loss"
	ExitProfitTarget = "profit_target"
	ExitTrailingStop = "trailing_stop"
	ExitDrawdownHalt = "drawdown_halt"
	ExitEndOfData    = "end_of_data"
)

// Trade is one simulated position. Trades are owned exclusively by a single
// simulator run; closing produces a new value rather than mutating fields in
// place, so the ledger is auditable after the run.
type Trade struct {
	ID         string           `json:"id"`
	EntryTime  int64            `json:"entry_time"` // epoch millis
	ExitTime   int64            `json:"exit_time,omitempty"`
	EntryPrice float64          `json:"entry_price"`
	ExitPrice  float64          `json:"exit_price,omitempty"`
	Direction  TradeDirection   `json:"direction"`
	Quantity   float64          `json:"quantity"`
	Commission float64          `json:"commission"` // accumulated, both sides
	Slippage   float64          `json:"slippage"`   // accumulated, both sides
	PnL        float64          `json:"pnl,omitempty"`
	PnLPct     float64          `json:"pnl_pct,omitempty"`
	Status     TradeStatus      `json:"status"`
	ExitReason string           `json:"exit_reason,omitempty"`
	Prediction PredictionResult `json:"prediction"`
}

// Notional returns the entry notional value of the position.
func (t Trade) Notional() float64 {
	return t.EntryPrice * t.Quantity
}

// DurationMs returns the trade duration in milliseconds (0 while open).
func (t Trade) DurationMs() int64 {
	if t.Status != TradeClosed {
		return 0
	}
	return t.ExitTime - t.EntryTime
}
