package repository

import (
	"context"

	"CandleCast/internal/domain/models"
)

// SessionStore holds journal sessions together with their candle series and
// prediction history. Candle indices are dense and append-only per session.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)

	// AppendCandle validates the candle and assigns the next index in the
	// session's series.
	AppendCandle(ctx context.Context, sessionID string, c models.Candle) (int, error)
	// Candles returns the half-open index range [from, to); to < 0 means the
	// end of the series.
	Candles(ctx context.Context, sessionID string, from, to int) ([]models.Candle, error)
	CandleCount(ctx context.Context, sessionID string) (int, error)

	SavePrediction(ctx context.Context, p *models.StoredPrediction) error
	GetPrediction(ctx context.Context, sessionID string, candleIndex int) (*models.StoredPrediction, error)
	ListPredictions(ctx context.Context, sessionID string) ([]*models.StoredPrediction, error)
}

// MarketStream is a live exchange candle feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Metrics interface {
	RecordCandleIngested(symbol string)
	RecordPrediction(direction string, confidence float64)
	RecordModelAccuracy(accuracy float64)
	RecordBacktest(status string, seconds float64)
	RecordError(kind string)
}
