package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CandleCast/internal/service/ratelimit"
	xhttp "CandleCast/pkg/http"
)

// Router bundles the per-area handlers behind one route registration point.
type Router struct {
	sessions    *SessionsEchoHandler
	predictions *PredictionsEchoHandler
	backtests   *BacktestEchoHandler
	limiter     *ratelimit.Limiter
}

func NewRouter(sessions *SessionsEchoHandler, predictions *PredictionsEchoHandler, backtests *BacktestEchoHandler) *Router {
	return &Router{
		sessions:    sessions,
		predictions: predictions,
		backtests:   backtests,
		limiter:     ratelimit.New(),
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.rateLimit)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	r.sessions.RegisterRoutes(e)
	r.predictions.RegisterRoutes(e)
	r.backtests.RegisterRoutes(e)
}

// rateLimit applies a per-client token bucket to mutating endpoints.
func (r *Router) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method != http.MethodGet {
			if !r.limiter.Allow(c.RealIP(), 30, 10) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
		}
		return next(c)
	}
}
