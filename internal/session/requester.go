// Package session drives the requester side of a round: choose parameters,
// fan the sealed request out to executors, verify what comes back, and score
// it. Executors that miss the deadline or fail verification score zero.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/engine"
	"automata/internal/scoring"
	"automata/pkg/rng"
)

// Transport delivers a sealed request to one executor and returns its sealed
// response.
type Transport interface {
	Send(ctx context.Context, executor string, req codec.Envelope) (codec.Envelope, error)
}

// Recorder accumulates per-responder scores across rounds.
type Recorder interface {
	Record(ctx context.Context, responder string, score float64) error
}

// RoundSink persists finished rounds.
type RoundSink interface {
	SaveRound(ctx context.Context, r RoundResult) error
}

// Config controls one Requester.
type Config struct {
	Executors   []string
	Deadline    time.Duration
	MaxInFlight int
	Normalize   bool
	Seed        int64
	Sampler     SamplerConfig
	Grid        GridConfig
}

// DefaultConfig returns a requester config with the stock sampler and grid.
func DefaultConfig() Config {
	return Config{
		Deadline: 10 * time.Second,
		Seed:     1,
		Sampler:  DefaultSamplerConfig(),
		Grid:     DefaultGridConfig(),
	}
}

// Outcome is one executor's result for a round.
type Outcome struct {
	Executor string
	// State keeps the classification (Verified, IntegrityFailed or Timeout)
	// after scoring; Scored records that the outcome then moved to Scored.
	State   State
	Scored  bool
	Score   float64
	Grid    *core.Grid
	Digest  string
	Err     error
	Elapsed time.Duration
}

// RoundResult summarizes a finished round.
type RoundResult struct {
	ID       string
	Params   engine.Params
	Initial  *core.Grid
	Outcomes []Outcome
	Started  time.Time
	Duration time.Duration
}

// Scores returns the per-executor scores of the round.
func (r RoundResult) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out[o.Executor] = o.Score
	}
	return out
}

// Option configures a Requester.
type Option func(*Requester)

// WithRecorder sets where scores are accumulated.
func WithRecorder(rec Recorder) Option { return func(r *Requester) { r.recorder = rec } }

// WithRoundSink sets where finished rounds are persisted.
func WithRoundSink(s RoundSink) Option { return func(r *Requester) { r.sink = s } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Requester) { r.logger = l } }

// Requester runs query rounds against a fixed set of executors. Rounds are
// serialized; a RunRound call while another is in flight fails with
// ErrIllegalTransition.
type Requester struct {
	cfg       Config
	transport Transport
	scorer    scoring.Scorer
	recorder  Recorder
	sink      RoundSink
	sampler   *Sampler
	rng       *rng.RNG
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// NewRequester validates cfg and builds a Requester.
func NewRequester(cfg Config, t Transport, s scoring.Scorer, opts ...Option) (*Requester, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", core.ErrInvalidInput)
	}
	if s == nil {
		s = scoring.Uniform{}
	}
	if cfg.Deadline <= 0 {
		return nil, fmt.Errorf("%w: deadline must be positive", core.ErrInvalidInput)
	}
	r := rng.New(cfg.Seed)
	sampler, err := NewSampler(cfg.Sampler, r)
	if err != nil {
		return nil, err
	}
	req := &Requester{
		cfg:       cfg,
		transport: t,
		scorer:    s,
		sampler:   sampler,
		rng:       r,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(req)
	}
	req.logger = req.logger.With("component", "requester")
	return req, nil
}

// State returns the round-level state.
func (r *Requester) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Requester) advance(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := transition(r.state, to)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// abort returns the round to Idle after a failure before any executor was
// queried.
func (r *Requester) abort() {
	r.mu.Lock()
	r.state = Idle
	r.mu.Unlock()
}

// RunRound samples parameters, queries every executor, and scores the
// responses. Executor failures never fail the round; they are reported as
// zero-score outcomes.
func (r *Requester) RunRound(ctx context.Context) (RoundResult, error) {
	if err := r.advance(ParamsChosen); err != nil {
		return RoundResult{}, err
	}
	started := time.Now()

	p, err := r.sampler.Sample()
	if err != nil {
		r.abort()
		return RoundResult{}, fmt.Errorf("sample params: %w", err)
	}
	initial, err := r.cfg.Grid.Build(p.Rule, r.rng)
	if err != nil {
		r.abort()
		return RoundResult{}, fmt.Errorf("build grid: %w", err)
	}
	return r.run(ctx, started, p, initial)
}

// RunQuery runs a round with caller-chosen parameters and initial grid.
func (r *Requester) RunQuery(ctx context.Context, p engine.Params, initial *core.Grid) (RoundResult, error) {
	if err := r.advance(ParamsChosen); err != nil {
		return RoundResult{}, err
	}
	return r.run(ctx, time.Now(), p, initial)
}

func (r *Requester) run(ctx context.Context, started time.Time, p engine.Params, initial *core.Grid) (RoundResult, error) {
	res := RoundResult{ID: uuid.NewString(), Params: p, Initial: initial, Started: started}
	ctx, span := startRoundSpan(ctx, res.ID, p, len(r.cfg.Executors))
	defer span.End()
	logger := r.logger.With("round", res.ID, "rule", p.Rule.String(), "steps", p.Steps)

	env, err := codec.SealParams(initial, p)
	if err != nil {
		r.abort()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		roundsTotal.WithLabelValues("error").Inc()
		return RoundResult{}, fmt.Errorf("seal request: %w", err)
	}
	if err := r.advance(Sent); err != nil {
		return RoundResult{}, err
	}

	dctx, cancel := context.WithTimeout(ctx, r.cfg.Deadline)
	defer cancel()
	if err := r.advance(AwaitingResponse); err != nil {
		return RoundResult{}, err
	}

	q := scoring.Query{Params: p, Initial: initial}
	res.Outcomes = make([]Outcome, len(r.cfg.Executors))
	g := new(errgroup.Group)
	if r.cfg.MaxInFlight > 0 {
		g.SetLimit(r.cfg.MaxInFlight)
	}
	for i, ex := range r.cfg.Executors {
		g.Go(func() error {
			res.Outcomes[i] = r.query(dctx, ex, env)
			return nil
		})
	}
	_ = g.Wait()

	for i := range res.Outcomes {
		o := &res.Outcomes[i]
		o.Scored = CanTransition(o.State, Scored)
		if o.State != Verified {
			continue
		}
		score, err := r.scorer.Score(ctx, q, o.Grid)
		if err != nil {
			o.Err = fmt.Errorf("score: %w", err)
			continue
		}
		o.Score = score
	}

	if r.cfg.Normalize {
		norm := scoring.Normalize(res.Scores())
		for i := range res.Outcomes {
			res.Outcomes[i].Score = norm[res.Outcomes[i].Executor]
		}
	}
	if err := r.advance(Scored); err != nil {
		return RoundResult{}, err
	}

	for _, o := range res.Outcomes {
		responsesTotal.WithLabelValues(o.State.String()).Inc()
		span.AddEvent("outcome", outcomeEvent(o))
		if o.Err != nil {
			logger.Warn("Executor failed", "executor", o.Executor, "state", o.State.String(), "error", o.Err)
		}
		if r.recorder == nil {
			continue
		}
		if err := r.recorder.Record(ctx, o.Executor, o.Score); err != nil {
			logger.Error("Failed to record score", "executor", o.Executor, "error", err)
		}
	}
	res.Duration = time.Since(started)
	if r.sink != nil {
		if err := r.sink.SaveRound(ctx, res); err != nil {
			logger.Error("Failed to save round", "error", err)
		}
	}

	roundDuration.Observe(res.Duration.Seconds())
	roundsTotal.WithLabelValues("ok").Inc()
	logger.Info("Round complete", "executors", len(res.Outcomes), "elapsed", res.Duration)
	if err := r.advance(Idle); err != nil {
		return res, err
	}
	return res, nil
}

type reply struct {
	env codec.Envelope
	err error
}

// query asks one executor and classifies what comes back. Send runs in its
// own goroutine so a transport that ignores ctx cannot hold the round past
// its deadline. Scoring happens afterwards, outside the deadline.
func (r *Requester) query(ctx context.Context, executor string, env codec.Envelope) Outcome {
	start := time.Now()
	o := Outcome{Executor: executor, State: AwaitingResponse}
	finish := func(to State) {
		if next, err := transition(o.State, to); err == nil {
			o.State = next
		}
		o.Elapsed = time.Since(start)
	}

	ch := make(chan reply, 1)
	go func() {
		resp, err := r.transport.Send(ctx, executor, env)
		ch <- reply{resp, err}
	}()

	var rep reply
	select {
	case rep = <-ch:
	case <-ctx.Done():
		rep.err = ctx.Err()
	}
	if rep.err != nil {
		o.Err = fmt.Errorf("%w: %s: %w", core.ErrTimeout, executor, rep.err)
		finish(Timeout)
		return o
	}

	grid, err := codec.DecodePayload(rep.env.Metadata, rep.env.Payload)
	if err != nil {
		o.Err = err
		finish(IntegrityFailed)
		return o
	}
	o.Grid = grid
	o.Digest = codec.Digest(rep.env.Payload)
	finish(Verified)
	return o
}

func outcomeEvent(o Outcome) trace.EventOption {
	return trace.WithAttributes(
		attribute.String("executor", o.Executor),
		attribute.String("state", o.State.String()),
		attribute.Float64("score", o.Score),
	)
}

// IsExecutorFault reports whether err came from an executor misbehaving
// rather than from the requester itself.
func IsExecutorFault(err error) bool {
	return errors.Is(err, core.ErrTimeout) || errors.Is(err, core.ErrIntegrity) || errors.Is(err, core.ErrMalformedShape)
}

// Run executes rounds back to back, waiting interval between them, until ctx
// is cancelled or rounds rounds have finished. rounds <= 0 runs forever. A
// failed round is logged and the loop continues.
func (r *Requester) Run(ctx context.Context, rounds int, interval time.Duration, fn func(RoundResult)) error {
	for n := 0; rounds <= 0 || n < rounds; n++ {
		if n > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.RunRound(ctx)
		if err != nil {
			r.logger.Error("Round failed", "error", err)
			continue
		}
		if fn != nil {
			fn(res)
		}
	}
	return nil
}
