// Package api exposes the HTTP surface over the usecase layer.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	models "CandleCast/internal/domain/models"
	"CandleCast/internal/repository"
	icache "CandleCast/internal/service/cache"
	"CandleCast/internal/services/features"
	"CandleCast/internal/usecase"
	xhttp "CandleCast/pkg/http"
	xlogger "CandleCast/pkg/logger"
)

// candleCacheTTL bounds staleness of cached range queries. Bounded ranges of
// an append-only series never change, the TTL only caps memory.
const candleCacheTTL = 30 * time.Second

// SessionsEchoHandler implements Echo-based HTTP handlers for session and
// candle management.
type SessionsEchoHandler struct {
	logger   *xlogger.Logger
	sessions *usecase.SessionUsecase
	cache    icache.ResponseCache
}

func NewSessionsEchoHandler(logger *xlogger.Logger, sessions *usecase.SessionUsecase, cache icache.ResponseCache) *SessionsEchoHandler {
	return &SessionsEchoHandler{logger: logger, sessions: sessions, cache: cache}
}

func (h *SessionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/sessions", h.Create)
	g.GET("/sessions", h.List)
	g.GET("/sessions/:id", h.Get)
	g.POST("/sessions/:id/candles", h.AppendCandle)
	g.GET("/sessions/:id/candles", h.Candles)
}

func (h *SessionsEchoHandler) Create(c echo.Context) error {
	req := &models.CreateSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.sessions.Create(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("session create error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.CreatedResponse(c, s)
}

func (h *SessionsEchoHandler) List(c echo.Context) error {
	sessions, err := h.sessions.List(c.Request().Context())
	if err != nil {
		h.logger.Error("session list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.ListResponse(c, sessions, int64(len(sessions)))
}

func (h *SessionsEchoHandler) Get(c echo.Context) error {
	s, err := h.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *SessionsEchoHandler) AppendCandle(c echo.Context) error {
	req := &models.AppendCandleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	idx, err := h.sessions.AppendCandle(c.Request().Context(), c.Param("id"), *req)
	if err != nil {
		h.logger.Error("candle append error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.CreatedResponse(c, map[string]int{"index": idx})
}

func (h *SessionsEchoHandler) Candles(c echo.Context) error {
	req := &models.GetCandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	id := c.Param("id")
	key := fmt.Sprintf("candles:%s:%d:%d:%d", id, req.From, req.To, req.Limit)
	cacheable := h.cache != nil && req.To > 0
	if cacheable {
		if b, ok, _ := h.cache.Get(key); ok {
			var cached []models.Candle
			if err := json.Unmarshal(b, &cached); err == nil {
				return xhttp.ListResponse(c, cached, int64(len(cached)))
			}
		}
	}

	candles, err := h.sessions.Candles(c.Request().Context(), id, *req)
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	if cacheable {
		if b, err := json.Marshal(candles); err == nil {
			_ = h.cache.Set(key, b, candleCacheTTL)
		}
	}
	return xhttp.ListResponse(c, candles, int64(len(candles)))
}

// mapDomainError converts repository and usecase sentinels to transport
// errors with proper HTTP statuses.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrPredictionNotFound),
		errors.Is(err, usecase.ErrJobNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, repository.ErrSessionExists),
		errors.Is(err, usecase.ErrBacktestInProgress):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, repository.ErrCandleOutOfOrder),
		errors.Is(err, usecase.ErrIndexOutOfRange),
		errors.Is(err, usecase.ErrNextCandleUnavailable),
		errors.Is(err, features.ErrInsufficientData):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	default:
		return err
	}
}
