// Package api exposes the poller to external presentation layers over HTTP:
// REST endpoints for commands and reads, and a websocket event stream.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"StockSentinel/internal/model"
)

const (
	DefaultTimeout      = 5 * time.Second
	ServiceName         = "stock-sentinel"
	ServiceVersion      = "1.0.0"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// Controller is the poller surface the API drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ChangeSymbol(ctx context.Context, symbol string) (string, error)
	Snapshot(ctx context.Context) (model.Status, error)
}

// Subscriber hands out event subscriptions.
type Subscriber interface {
	Subscribe(size int) (<-chan model.Event, func())
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	controller Controller
	events     Subscriber
	now        func() time.Time
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(controller Controller, events Subscriber) *APIHandler {
	return &APIHandler{controller: controller, events: events, now: time.Now}
}

// NewServer returns an http.Server serving the API on addr.
func (h *APIHandler) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", h.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/status", h.GetStatus)
	v1.GET("/observations", h.GetObservations)
	v1.GET("/chart", h.GetChart)
	v1.POST("/symbol", h.ChangeSymbol)
	v1.POST("/start", h.Start)
	v1.POST("/stop", h.Stop)
	v1.GET("/events", h.StreamEvents)

	return router
}
