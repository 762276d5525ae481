// Package transport carries envelopes between requester and executors: an
// in-process loopback, a gin HTTP server, and the matching HTTP client.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/executor"
	"automata/internal/rules"
)

// Handler answers one sealed simulation request.
type Handler interface {
	Handle(ctx context.Context, req codec.Envelope) (codec.Envelope, error)
}

// SimulateRequest is the JSON body of POST /v1/simulate. Byte fields travel
// as base64.
type SimulateRequest struct {
	Metadata []byte `json:"metadata" binding:"required"`
	Payload  []byte `json:"payload" binding:"required"`
}

// SimulateResponse carries the sealed final grid.
type SimulateResponse struct {
	Metadata []byte `json:"metadata"`
	Payload  []byte `json:"payload"`
}

// AliveResponse is the body of GET /v1/alive.
type AliveResponse struct {
	Alive bool `json:"alive"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// bodyLimiter is implemented by handlers that bound their request size.
type bodyLimiter interface {
	MaxRequestBytes() int64
}

// Handlers serves the executor API.
type Handlers struct {
	handler  Handler
	logger   *slog.Logger
	maxBytes int64
}

// NewHandlers wraps h for gin. When h reports a MaxRequestBytes limit,
// larger request bodies are refused with 413 before they are decoded.
func NewHandlers(h Handler, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	hs := &Handlers{handler: h, logger: logger}
	if bl, ok := h.(bodyLimiter); ok {
		hs.maxBytes = bl.MaxRequestBytes()
	}
	return hs
}

// RegisterRoutes mounts the executor endpoints under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/simulate", h.HandleSimulate)
	rg.GET("/alive", h.HandleAlive)
}

// NewRouter builds the full executor HTTP surface, /metrics included.
func NewRouter(h Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterRoutes(router.Group("/v1"), NewHandlers(h, logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// HandleSimulate handles POST /v1/simulate.
func (h *Handlers) HandleSimulate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSimulate")

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			logger.Warn("Request body too large", "limit", mbe.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  "TOO_LARGE",
			})
			return
		}
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.handler.Handle(c.Request.Context(), codec.Envelope{Metadata: req.Metadata, Payload: req.Payload})
	if err != nil {
		status, code := classify(err)
		logger.Info("Simulation rejected", "code", code, "error", err)
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, SimulateResponse{Metadata: resp.Metadata, Payload: resp.Payload})
}

// HandleAlive handles GET /v1/alive.
func (h *Handlers) HandleAlive(c *gin.Context) {
	c.JSON(http.StatusOK, AliveResponse{Alive: true})
}

// classify maps a handler error to an HTTP status and a stable code. Order
// matters: the specific sentinels wrap ErrInvalidInput.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, executor.ErrBusy):
		return http.StatusTooManyRequests, "BUSY"
	case errors.Is(err, core.ErrIntegrity):
		return http.StatusUnprocessableEntity, "INTEGRITY"
	case errors.Is(err, core.ErrMalformedShape):
		return http.StatusBadRequest, "MALFORMED_SHAPE"
	case errors.Is(err, rules.ErrUnknownRule):
		return http.StatusBadRequest, "UNKNOWN_RULE"
	case errors.Is(err, executor.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "TOO_LARGE"
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, core.ErrSimulation):
		return http.StatusInternalServerError, "SIMULATION"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "TIMEOUT"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
