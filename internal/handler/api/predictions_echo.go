package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	models "CandleCast/internal/domain/models"
	imetrics "CandleCast/internal/service/metrics"
	"CandleCast/internal/usecase"
	xhttp "CandleCast/pkg/http"
	xlogger "CandleCast/pkg/logger"
)

// PredictionsEchoHandler exposes prediction creation, validation and the
// model performance counters.
type PredictionsEchoHandler struct {
	logger      *xlogger.Logger
	predictions *usecase.PredictionUsecase
}

func NewPredictionsEchoHandler(logger *xlogger.Logger, predictions *usecase.PredictionUsecase) *PredictionsEchoHandler {
	return &PredictionsEchoHandler{logger: logger, predictions: predictions}
}

func (h *PredictionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/sessions/:id/predictions", h.Predict)
	g.GET("/sessions/:id/predictions", h.List)
	g.POST("/sessions/:id/predictions/:index/validate", h.Validate)
	g.GET("/performance", h.Performance)
}

func (h *PredictionsEchoHandler) Predict(c echo.Context) error {
	start := time.Now()
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		imetrics.APIErrors.WithLabelValues("predict").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.predictions.Predict(c.Request().Context(), c.Param("id"), req.Index)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("predict").Inc()
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	imetrics.APILatency.WithLabelValues("predict").Observe(time.Since(start).Seconds())
	return xhttp.CreatedResponse(c, p)
}

func (h *PredictionsEchoHandler) List(c echo.Context) error {
	list, err := h.predictions.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *PredictionsEchoHandler) Validate(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return xhttp.BadRequestResponse(c, "index must be a non-negative integer")
	}
	req := &models.ValidatePredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.predictions.Validate(c.Request().Context(), c.Param("id"), index, req.ActualClose)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("validate").Inc()
		h.logger.Error("validate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *PredictionsEchoHandler) Performance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.predictions.Performance(c.Request().Context()))
}
