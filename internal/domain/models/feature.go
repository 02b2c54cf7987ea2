package models

// FeatureMeta carries provenance for a feature vector.
type FeatureMeta struct {
	Timestamp   int64   `json:"timestamp"`
	CandleIndex int     `json:"candle_index"`
	Confidence  float64 `json:"confidence"` // data-quality score in [0.1, 1]
}

// FeatureVector is the fixed-shape output of the feature extractor.
// Technical and price features are normalized into roughly [-1, 1];
// temporal features into [0, 1].
type FeatureVector struct {
	Technical []float64   `json:"technical"` // 6 values
	Price     []float64   `json:"price"`     // 5 values
	Volume    []float64   `json:"volume"`    // 3 values
	Temporal  []float64   `json:"temporal"`  // 3 values
	Meta      FeatureMeta `json:"meta"`
}

// Positions inside FeatureVector groups referenced by the scorer.
const (
	TechSMARatio     = 0
	TechRSI          = 1
	TechBollinger    = 2
	TechMACD         = 3
	TechStochastic   = 4
	TechSMADistance  = 5
	PriceMomentum    = 4
	VolumeRatio      = 0
	TechnicalCount   = 6
	PriceCount       = 5
	VolumeGroupCount = 3
	TemporalCount    = 3
)
