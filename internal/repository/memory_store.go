// Package repository provides the in-process implementations of the domain
// repository interfaces. Session state lives for the process lifetime; there
// is no durable persistence layer behind it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CandleCast/internal/domain/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrCandleOutOfOrder   = errors.New("candle timestamp not after previous candle")
	ErrPredictionNotFound = errors.New("prediction not found")
)

type sessionState struct {
	session     models.Session
	candles     []models.Candle
	predictions map[int]models.StoredPrediction
}

// MemoryStore is a concurrency-safe in-memory SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionState)}
}

func (m *MemoryStore) CreateSession(_ context.Context, s *models.Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("repository: session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("repository: %w: %s", ErrSessionExists, s.ID)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.sessions[s.ID] = &sessionState{
		session:     *s,
		predictions: make(map[int]models.StoredPrediction),
	}
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, id)
	}
	s := st.session
	return &s, nil
}

func (m *MemoryStore) ListSessions(_ context.Context) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Session, 0, len(m.sessions))
	for _, st := range m.sessions {
		s := st.session
		out = append(out, &s)
	}
	return out, nil
}

// AppendCandle validates the candle, enforces strictly increasing timestamps
// and assigns the next dense index.
func (m *MemoryStore) AppendCandle(_ context.Context, sessionID string, c models.Candle) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("repository: invalid candle: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, sessionID)
	}
	if n := len(st.candles); n > 0 && c.Timestamp <= st.candles[n-1].Timestamp {
		return 0, fmt.Errorf("repository: %w: %d <= %d",
			ErrCandleOutOfOrder, c.Timestamp, st.candles[n-1].Timestamp)
	}
	c.Index = len(st.candles)
	st.candles = append(st.candles, c)
	return c.Index, nil
}

func (m *MemoryStore) Candles(_ context.Context, sessionID string, from, to int) ([]models.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, sessionID)
	}
	n := len(st.candles)
	if to < 0 || to > n {
		to = n
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return []models.Candle{}, nil
	}
	out := make([]models.Candle, to-from)
	copy(out, st.candles[from:to])
	return out, nil
}

func (m *MemoryStore) CandleCount(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, sessionID)
	}
	return len(st.candles), nil
}

// SavePrediction upserts by (session, candle index). Callers that require
// create-once semantics check GetPrediction first.
func (m *MemoryStore) SavePrediction(_ context.Context, p *models.StoredPrediction) error {
	if p == nil {
		return fmt.Errorf("repository: nil prediction")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[p.SessionID]
	if !ok {
		return fmt.Errorf("repository: %w: %s", ErrSessionNotFound, p.SessionID)
	}
	st.predictions[p.CandleIndex] = *p
	return nil
}

func (m *MemoryStore) GetPrediction(_ context.Context, sessionID string, candleIndex int) (*models.StoredPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, sessionID)
	}
	p, ok := st.predictions[candleIndex]
	if !ok {
		return nil, fmt.Errorf("repository: %w: %s/%d", ErrPredictionNotFound, sessionID, candleIndex)
	}
	return &p, nil
}

func (m *MemoryStore) ListPredictions(_ context.Context, sessionID string) ([]*models.StoredPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("repository: %w: %s", ErrSessionNotFound, sessionID)
	}
	out := make([]*models.StoredPrediction, 0, len(st.predictions))
	for i := 0; i < len(st.candles); i++ {
		if p, ok := st.predictions[i]; ok {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}
