package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/poller"
)

type statusResponse struct {
	model.Status
	Notice    string `json:"notice,omitempty"`
	QuoteText string `json:"quote_text,omitempty"`
	Info      string `json:"info,omitempty"`
}

type chartResponse struct {
	Symbol string             `json:"symbol"`
	Origin time.Time          `json:"origin"`
	Points []model.ChartPoint `json:"points"`
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// GetStatus handles GET /api/v1/status
func (h *APIHandler) GetStatus(c *gin.Context) {
	st, ok := h.snapshot(c)
	if !ok {
		return
	}
	resp := statusResponse{Status: st}
	if st.LastNotice != nil {
		resp.Notice = notifier.FormatNotice(*st.LastNotice, h.now())
	}
	if st.Latest != nil {
		resp.QuoteText = notifier.FormatQuote(st.Latest, h.now())
		resp.Info = notifier.FormatInfo(st.Latest)
	}
	c.JSON(http.StatusOK, resp)
}

// GetObservations handles GET /api/v1/observations
func (h *APIHandler) GetObservations(c *gin.Context) {
	st, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": st.Symbol, "observations": st.Observations})
}

// GetChart handles GET /api/v1/chart
func (h *APIHandler) GetChart(c *gin.Context) {
	st, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chartResponse{
		Symbol: st.Symbol,
		Origin: st.Origin,
		Points: model.ChartPoints(st.Observations, st.Origin, st.Symbol),
	})
}

// ChangeSymbol handles POST /api/v1/symbol
func (h *APIHandler) ChangeSymbol(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"symbol\": \"...\"}"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbol, err := h.controller.ChangeSymbol(ctx, req.Symbol)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol})
}

// Start handles POST /api/v1/start
func (h *APIHandler) Start(c *gin.Context) {
	h.command(c, h.controller.Start, true)
}

// Stop handles POST /api/v1/stop
func (h *APIHandler) Stop(c *gin.Context) {
	h.command(c, h.controller.Stop, false)
}

func (h *APIHandler) command(c *gin.Context, fn func(context.Context) error, running bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": running})
}

// HealthCheck handles GET /healthz
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

func (h *APIHandler) snapshot(c *gin.Context) (model.Status, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()
	st, err := h.controller.Snapshot(ctx)
	if err != nil {
		h.handleError(c, err)
		return model.Status{}, false
	}
	return st, true
}

// handleError logs the error and maps it to a status code.
func (h *APIHandler) handleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, poller.ErrInvalidSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, poller.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	requestID := c.GetString(RequestIDContextKey)
	log.Printf("[ERROR] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, requestID, err)
	c.JSON(status, gin.H{"error": err.Error(), "request_id": requestID})
}
