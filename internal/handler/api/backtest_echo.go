package api

import (
	"time"

	"github.com/labstack/echo/v4"

	models "CandleCast/internal/domain/models"
	imetrics "CandleCast/internal/service/metrics"
	"CandleCast/internal/usecase"
	xhttp "CandleCast/pkg/http"
	xlogger "CandleCast/pkg/logger"
)

// BacktestEchoHandler runs backtests synchronously or through the job queue.
type BacktestEchoHandler struct {
	logger    *xlogger.Logger
	backtests *usecase.BacktestUsecase
}

func NewBacktestEchoHandler(logger *xlogger.Logger, backtests *usecase.BacktestUsecase) *BacktestEchoHandler {
	return &BacktestEchoHandler{logger: logger, backtests: backtests}
}

func (h *BacktestEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/sessions/:id/backtests", h.Run)
	g.GET("/backtests/:job_id", h.Job)
}

func (h *BacktestEchoHandler) Run(c echo.Context) error {
	start := time.Now()
	req := &models.RunBacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		imetrics.APIErrors.WithLabelValues("backtest").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	sessionID := c.Param("id")

	if req.Async {
		jobID, err := h.backtests.Enqueue(ctx, sessionID, req.Config)
		if err != nil {
			imetrics.APIErrors.WithLabelValues("backtest").Inc()
			h.logger.Error("backtest enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, mapDomainError(err))
		}
		return xhttp.CreatedResponse(c, map[string]string{"job_id": jobID})
	}

	report, err := h.backtests.Run(ctx, sessionID, req.Config)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("backtest").Inc()
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	imetrics.APILatency.WithLabelValues("backtest").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, report)
}

func (h *BacktestEchoHandler) Job(c echo.Context) error {
	state, err := h.backtests.Job(c.Request().Context(), c.Param("job_id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, state)
}
