package session

import (
	"fmt"

	"automata/internal/core"
	"automata/internal/engine"
	"automata/internal/rules"
	"automata/pkg/rng"
)

// SamplerConfig bounds the parameters a requester draws each round.
type SamplerConfig struct {
	MinSteps      int
	MaxSteps      int
	Rules         []string
	Neighborhoods []string
	Radius        int
}

// DefaultSamplerConfig returns the stock sampling space.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MinSteps:      10,
		MaxSteps:      20,
		Rules:         []string{"Rule30", "Rule110"},
		Neighborhoods: []string{"Moore"},
		Radius:        1,
	}
}

// Sampler draws simulation parameters from a SamplerConfig. It is not safe
// for concurrent use.
type Sampler struct {
	cfg   SamplerConfig
	rules []rules.Rule
	rng   *rng.RNG
}

// NewSampler resolves the configured rule names up front so a typo fails at
// startup instead of mid-round.
func NewSampler(cfg SamplerConfig, r *rng.RNG) (*Sampler, error) {
	if cfg.MinSteps <= 0 || cfg.MaxSteps < cfg.MinSteps {
		return nil, fmt.Errorf("%w: step range [%d, %d]", core.ErrInvalidInput, cfg.MinSteps, cfg.MaxSteps)
	}
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules to sample", core.ErrInvalidInput)
	}
	resolved := make([]rules.Rule, 0, len(cfg.Rules))
	for _, name := range cfg.Rules {
		rule, err := rules.Lookup(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rule)
	}
	if len(cfg.Neighborhoods) == 0 {
		cfg.Neighborhoods = []string{engine.Moore.String()}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = engine.DefaultRadius
	}
	return &Sampler{cfg: cfg, rules: resolved, rng: r}, nil
}

// Sample draws one parameter set. Elementary rules always get radius 1.
func (s *Sampler) Sample() (engine.Params, error) {
	rule := rng.Pick(s.rng, s.rules)
	radius := s.cfg.Radius
	if rule.Elementary() {
		radius = 1
	}
	return engine.NewParams(
		s.rng.IntRange(s.cfg.MinSteps, s.cfg.MaxSteps),
		rule.String(),
		radius,
		rng.Pick(s.rng, s.cfg.Neighborhoods),
	)
}

// GridConfig describes the initial condition sent with every query.
type GridConfig struct {
	DType   core.DType
	Width   int
	Height  int
	Init    string
	Density float64
}

// DefaultGridConfig returns a 100-cell simple seed.
func DefaultGridConfig() GridConfig {
	return GridConfig{DType: core.Uint8, Width: 100, Height: 100, Init: "simple", Density: 0.5}
}

// Shape returns the grid shape for rule: a single row for elementary rules,
// Height×Width otherwise.
func (c GridConfig) Shape(rule rules.Rule) core.Shape {
	if rule.Elementary() || c.Height <= 0 {
		return core.Shape{c.Width}
	}
	return core.Shape{c.Height, c.Width}
}

// Build creates the initial grid for rule.
func (c GridConfig) Build(rule rules.Rule, r *rng.RNG) (*core.Grid, error) {
	dtype := c.DType
	if dtype == "" {
		dtype = core.Uint8
	}
	shape := c.Shape(rule)
	switch c.Init {
	case "", "simple":
		return core.Simple(dtype, shape)
	case "random":
		return core.Random(dtype, shape, c.Density, r)
	}
	return nil, fmt.Errorf("%w: unknown initial condition %q", core.ErrInvalidInput, c.Init)
}
