package usecase

import (
	"context"
	"fmt"

	"CandleCast/internal/domain/models"
	drepo "CandleCast/internal/domain/repository"
)

// CandleProcessor appends streamed candles to the live session's series.
type CandleProcessor struct {
	store     drepo.SessionStore
	metrics   drepo.Metrics
	sessionID string
	symbol    string
}

// NewCandleProcessor creates a new CandleProcessor instance bound to one
// session.
func NewCandleProcessor(store drepo.SessionStore, metrics drepo.Metrics, sessionID, symbol string) *CandleProcessor {
	return &CandleProcessor{store: store, metrics: metrics, sessionID: sessionID, symbol: symbol}
}

// SessionID returns the live session the processor writes to.
func (p *CandleProcessor) SessionID() string { return p.sessionID }

// Process appends a single candle to the live session.
func (p *CandleProcessor) Process(ctx context.Context, c *models.Candle) error {
	if c == nil {
		return fmt.Errorf("candle is nil")
	}

	if _, err := p.store.AppendCandle(ctx, p.sessionID, *c); err != nil {
		p.metrics.RecordError("ingest")
		return fmt.Errorf("process candle: %w", err)
	}
	p.metrics.RecordCandleIngested(p.symbol)
	return nil
}
