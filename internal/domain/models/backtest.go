package models

// BacktestConfig controls one simulator run. It is merged with the defaults
// below at run start and immutable for the run's duration. Fractions are
// expressed as decimals (0.001 = 0.1%).
type BacktestConfig struct {
	InitialCapital      float64 `json:"initial_capital" yaml:"initial_capital" default:"10000" validate:"omitempty,gt=0"`
	PositionSize        float64 `json:"position_size" yaml:"position_size" default:"0.1" validate:"omitempty,gt=0,lte=1"`
	Commission          float64 `json:"commission" yaml:"commission" default:"0.001" validate:"omitempty,gte=0,lt=1"`
	Slippage            float64 `json:"slippage" yaml:"slippage" default:"0.0005" validate:"omitempty,gte=0,lt=1"`
	MaxDrawdown         float64 `json:"max_drawdown" yaml:"max_drawdown" default:"0.2" validate:"omitempty,gt=0,lte=1"`
	MaxConcurrentTrades int     `json:"max_concurrent_trades" yaml:"max_concurrent_trades" default:"3" validate:"omitempty,gte=1"`
	RiskFreeRate        float64 `json:"risk_free_rate" yaml:"risk_free_rate" default:"0.02" validate:"omitempty,gte=0"`
}

// EquityCurvePoint is appended once per processed candle.
type EquityCurvePoint struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
	Drawdown  float64 `json:"drawdown"` // fraction of peak, [0, 1]
}

// BacktestReport aggregates the trade ledger and equity curve of a completed run.
// All ratio fields are 0 when their denominator degenerates.
type BacktestReport struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalPnL    float64 `json:"total_pnl"`
	TotalPnLPct float64 `json:"total_pnl_pct"`

	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	ProfitFactor float64 `json:"profit_factor"`

	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	AvgTradeDurationHours float64 `json:"avg_trade_duration_hours"`
	MaxTradeDurationHours float64 `json:"max_trade_duration_hours"`

	TotalCommission float64 `json:"total_commission"`
	TotalSlippage   float64 `json:"total_slippage"`

	VaR95 float64 `json:"var_95"` // empirical loss percentiles, positive = loss
	VaR99 float64 `json:"var_99"`

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	Halted         bool    `json:"halted"` // drawdown circuit breaker fired

	Trades      []Trade            `json:"trades"`
	EquityCurve []EquityCurvePoint `json:"equity_curve"`
}
