// Package executor serves simulation requests: it verifies the incoming
// envelope, evolves the grid, and returns the final generation sealed in a
// fresh envelope.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/engine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	// ErrBusy is returned when the request rate exceeds the executor's budget.
	ErrBusy = errors.New("executor busy")
	// ErrTooLarge marks requests beyond the executor's cell or step limits.
	ErrTooLarge = fmt.Errorf("%w: request too large", core.ErrInvalidInput)
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automata_executor_requests_total",
	Help: "Executor requests by result",
}, []string{"result"})

// Config bounds what an executor accepts.
type Config struct {
	// Rate is the sustained requests per second; zero disables limiting.
	Rate float64
	// Burst is the token bucket size.
	Burst int
	// MaxCells caps the grid size; zero means unlimited.
	MaxCells int
	// MaxSteps caps the requested steps; zero means unlimited.
	MaxSteps int
	// Memoize enables the per-run transition memo.
	Memoize bool
}

// DefaultConfig returns the standard executor limits.
func DefaultConfig() Config {
	return Config{Rate: 10, Burst: 20, MaxCells: 1 << 20, MaxSteps: 10_000, Memoize: true}
}

// Executor handles simulation requests. It is safe for concurrent use; each
// request evolves on its own buffers.
type Executor struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New constructs an Executor. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return &Executor{cfg: cfg, limiter: limiter, logger: logger.With("component", "executor")}
}

// Handle runs one request: decode, evolve, encode the last generation.
func (e *Executor) Handle(ctx context.Context, req codec.Envelope) (codec.Envelope, error) {
	if !e.limiter.Allow() {
		requestsTotal.WithLabelValues("busy").Inc()
		return codec.Envelope{}, ErrBusy
	}

	grid, p, err := codec.DecodeParams(req.Metadata, req.Payload)
	if err != nil {
		e.reject("decode", err)
		return codec.Envelope{}, err
	}
	if err := e.admit(grid, p); err != nil {
		e.reject("admit", err)
		return codec.Envelope{}, err
	}

	logger := e.logger.With("rule", p.Rule.String(), "steps", p.Steps, "shape", grid.Shape(), "neighborhood", p.Neighborhood.String())
	start := time.Now()
	history, err := engine.Evolve(ctx, grid, p, engine.WithMemo(e.cfg.Memoize))
	if err != nil {
		e.reject("evolve", err)
		return codec.Envelope{}, err
	}

	resp, err := codec.SealGrid(history.Last())
	if err != nil {
		e.reject("encode", err)
		return codec.Envelope{}, err
	}
	requestsTotal.WithLabelValues("ok").Inc()
	logger.Debug("Simulation complete", "elapsed", time.Since(start))
	return resp, nil
}

// requestHeadroom covers the JSON framing and metadata around a payload.
const requestHeadroom = 64 << 10

// MaxRequestBytes bounds the encoded size of a request the executor could
// accept: the widest dtype at MaxCells, base64 encoded, plus headroom. Zero
// means unlimited.
func (e *Executor) MaxRequestBytes() int64 {
	if e.cfg.MaxCells <= 0 || int64(e.cfg.MaxCells) > math.MaxInt64/16 {
		return 0
	}
	raw := int64(e.cfg.MaxCells) * int64(core.MaxWidth)
	return (raw+2)/3*4 + requestHeadroom
}

func (e *Executor) admit(g *core.Grid, p engine.Params) error {
	if e.cfg.MaxCells > 0 && g.Len() > e.cfg.MaxCells {
		return fmt.Errorf("%w: %d cells exceeds %d", ErrTooLarge, g.Len(), e.cfg.MaxCells)
	}
	if e.cfg.MaxSteps > 0 && p.Steps > e.cfg.MaxSteps {
		return fmt.Errorf("%w: %d steps exceeds %d", ErrTooLarge, p.Steps, e.cfg.MaxSteps)
	}
	return nil
}

func (e *Executor) reject(stage string, err error) {
	requestsTotal.WithLabelValues(stage + "_error").Inc()
	e.logger.Warn("Rejected request", "stage", stage, "error", err)
}
