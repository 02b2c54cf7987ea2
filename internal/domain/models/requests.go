package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type CreateSessionRequest struct {
	Symbol    string `json:"symbol" validate:"required,min=3,max=20"`
	Timeframe string `json:"timeframe" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	StartedAt string `json:"started_at"` // RFC3339 or unix seconds; empty = now
}

type AppendCandleRequest struct {
	Timestamp int64   `json:"timestamp" validate:"required,gt=0"`
	Open      float64 `json:"open" validate:"required,gt=0"`
	High      float64 `json:"high" validate:"required,gt=0"`
	Low       float64 `json:"low" validate:"required,gt=0"`
	Close     float64 `json:"close" validate:"required,gt=0"`
	Volume    float64 `json:"volume" validate:"gte=0"`
}

type GetCandlesRequest struct {
	From  int64 `query:"from" validate:"gte=0"`
	To    int64 `query:"to" validate:"gte=0"`
	Limit int   `query:"limit" default:"1000" validate:"gte=1,lte=10000"`
}

type PredictRequest struct {
	// Index of the candle the prediction is made at; -1 means latest.
	Index int `json:"index" default:"-1" validate:"gte=-1"`
}

type ValidatePredictionRequest struct {
	// Actual close of the following candle; when omitted the stored series
	// is consulted instead.
	ActualClose float64 `json:"actual_close" validate:"omitempty,gt=0"`
}

type RunBacktestRequest struct {
	Config BacktestConfig `json:"config"`
	// Async enqueues the run on the job queue and returns a job id.
	Async bool `json:"async"`
}
