package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"CandleCast/internal/domain/models"
	drepo "CandleCast/internal/domain/repository"
	"CandleCast/pkg/util"
)

// SessionUsecase owns session lifecycle and candle ingestion.
type SessionUsecase struct {
	store   drepo.SessionStore
	metrics drepo.Metrics
}

// NewSessionUsecase creates a new SessionUsecase instance.
func NewSessionUsecase(store drepo.SessionStore, metrics drepo.Metrics) *SessionUsecase {
	return &SessionUsecase{store: store, metrics: metrics}
}

// Create registers a new journal session and returns it.
func (u *SessionUsecase) Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	now := time.Now().UTC()
	tf := drepo.NormalizeTimeframe(req.Timeframe)
	s := &models.Session{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Timeframe: string(tf),
		StartedAt: util.AlignToTimeframe(util.ParseTimeDefault(req.StartedAt, now), string(tf)),
		CreatedAt: now,
	}
	if err := u.store.CreateSession(ctx, s); err != nil {
		u.metrics.RecordError("session_create")
		return nil, err
	}
	return s, nil
}

// Get returns one session by id.
func (u *SessionUsecase) Get(ctx context.Context, id string) (*models.Session, error) {
	return u.store.GetSession(ctx, id)
}

// List returns all sessions.
func (u *SessionUsecase) List(ctx context.Context) ([]*models.Session, error) {
	return u.store.ListSessions(ctx)
}

// AppendCandle validates and appends one candle, returning its assigned index.
func (u *SessionUsecase) AppendCandle(ctx context.Context, sessionID string, req models.AppendCandleRequest) (int, error) {
	c := models.Candle{
		Timestamp: req.Timestamp,
		Open:      req.Open,
		High:      req.High,
		Low:       req.Low,
		Close:     req.Close,
		Volume:    req.Volume,
	}
	idx, err := u.store.AppendCandle(ctx, sessionID, c)
	if err != nil {
		u.metrics.RecordError("candle_append")
		return 0, err
	}
	if s, serr := u.store.GetSession(ctx, sessionID); serr == nil {
		u.metrics.RecordCandleIngested(s.Symbol)
	}
	return idx, nil
}

// Candles returns a slice of the session's series limited by the request.
func (u *SessionUsecase) Candles(ctx context.Context, sessionID string, req models.GetCandlesRequest) ([]models.Candle, error) {
	from := int(req.From)
	to := -1
	if req.To > 0 {
		to = int(req.To)
	}
	candles, err := u.store.Candles(ctx, sessionID, from, to)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(candles) > req.Limit {
		candles = candles[:req.Limit]
	}
	return candles, nil
}
