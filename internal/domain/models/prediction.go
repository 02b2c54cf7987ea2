package models

import "time"

// Direction is a predicted or realized next-candle direction.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// PredictionResult is created once per (session, candle index) pair and is
// immutable after creation.
type PredictionResult struct {
	Direction      Direction     `json:"direction"`
	Probability    float64       `json:"probability"` // [0.5, 0.95]
	Confidence     float64       `json:"confidence"`  // [0.1, 0.95]
	Features       FeatureVector `json:"features"`
	ModelVersion   string        `json:"model_version"`
	ProcessingTime float64       `json:"processing_time"` // milliseconds
}

// StoredPrediction ties a prediction to its series position and records the
// validation outcome once the next candle is known.
type StoredPrediction struct {
	SessionID   string           `json:"session_id"`
	CandleIndex int              `json:"candle_index"`
	Result      PredictionResult `json:"result"`
	CreatedAt   time.Time        `json:"created_at"`
	Validated   bool             `json:"validated"`
	Actual      Direction        `json:"actual,omitempty"`
	Correct     bool             `json:"correct"`
}

// ModelPerformance is the running accuracy counter persisted through the
// key-value collaborator.
type ModelPerformance struct {
	TotalPredictions   int     `json:"total_predictions"`
	CorrectPredictions int     `json:"correct_predictions"`
	Accuracy           float64 `json:"accuracy"`
	UpdatedAt          int64   `json:"updated_at"` // epoch millis
}
