// Package config loads the YAML configuration shared by the requester and
// executor commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"automata/internal/core"
	"automata/internal/executor"
	"automata/internal/session"
	"automata/internal/storage"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Requester RequesterConfig `yaml:"requester"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Storage   StorageConfig   `yaml:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type SamplerConfig struct {
	MinSteps      int      `yaml:"min_steps" validate:"gte=1"`
	MaxSteps      int      `yaml:"max_steps" validate:"gtefield=MinSteps"`
	Rules         []string `yaml:"rules" validate:"min=1,dive,required"`
	Neighborhoods []string `yaml:"neighborhoods" validate:"dive,oneof=Moore VonNeumann"`
	Radius        int      `yaml:"radius" validate:"gte=1"`
}

type GridConfig struct {
	DType   string  `yaml:"dtype" validate:"oneof=uint8 int8 uint16 int16 uint32 int32 uint64 int64"`
	Width   int     `yaml:"width" validate:"gte=1"`
	Height  int     `yaml:"height" validate:"gte=0"`
	Init    string  `yaml:"init" validate:"oneof=simple random"`
	Density float64 `yaml:"density" validate:"gte=0,lte=1"`
}

type RequesterConfig struct {
	Executors   []string      `yaml:"executors" validate:"dive,required"`
	Deadline    time.Duration `yaml:"deadline" validate:"gt=0"`
	Rounds      int           `yaml:"rounds" validate:"gte=0"`
	Interval    time.Duration `yaml:"interval" validate:"gte=0"`
	MaxInFlight int           `yaml:"max_in_flight" validate:"gte=0"`
	Seed        int64         `yaml:"seed"`
	Sampler     SamplerConfig `yaml:"sampler"`
	Grid        GridConfig    `yaml:"grid"`
	Scorer      string        `yaml:"scorer" validate:"oneof=uniform agreement"`
	Normalize   bool          `yaml:"normalize"`
	Alpha       float64       `yaml:"alpha" validate:"gt=0,lte=1"`
}

type ExecutorConfig struct {
	Listen   string  `yaml:"listen" validate:"required"`
	Rate     float64 `yaml:"rate" validate:"gte=0"`
	Burst    int     `yaml:"burst" validate:"gte=0"`
	Memoize  bool    `yaml:"memoize"`
	MaxCells int     `yaml:"max_cells" validate:"gte=0"`
	MaxSteps int     `yaml:"max_steps" validate:"gte=0"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite badger"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
}

// Default returns the built-in configuration.
func Default() Config {
	req := session.DefaultConfig()
	ex := executor.DefaultConfig()
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Requester: RequesterConfig{
			Deadline: req.Deadline,
			Rounds:   1,
			Interval: 5 * time.Second,
			Seed:     req.Seed,
			Sampler: SamplerConfig{
				MinSteps:      req.Sampler.MinSteps,
				MaxSteps:      req.Sampler.MaxSteps,
				Rules:         req.Sampler.Rules,
				Neighborhoods: req.Sampler.Neighborhoods,
				Radius:        req.Sampler.Radius,
			},
			Grid: GridConfig{
				DType:   string(req.Grid.DType),
				Width:   req.Grid.Width,
				Height:  req.Grid.Height,
				Init:    req.Grid.Init,
				Density: req.Grid.Density,
			},
			Scorer: "agreement",
			Alpha:  storage.DefaultAlpha,
		},
		Executor: ExecutorConfig{
			Listen:   ":8091",
			Rate:     ex.Rate,
			Burst:    ex.Burst,
			Memoize:  ex.Memoize,
			MaxCells: ex.MaxCells,
			MaxSteps: ex.MaxSteps,
		},
		Storage: StorageConfig{Driver: "memory"},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: parse config: %v", core.ErrInvalidInput, err)
	}
	return cfg, cfg.Validate()
}

var validate = validator.New()

// Validate checks struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return nil
}

// Session converts the requester section into a session.Config.
func (c Config) Session() session.Config {
	r := c.Requester
	return session.Config{
		Executors:   r.Executors,
		Deadline:    r.Deadline,
		MaxInFlight: r.MaxInFlight,
		Normalize:   r.Normalize,
		Seed:        r.Seed,
		Sampler: session.SamplerConfig{
			MinSteps:      r.Sampler.MinSteps,
			MaxSteps:      r.Sampler.MaxSteps,
			Rules:         r.Sampler.Rules,
			Neighborhoods: r.Sampler.Neighborhoods,
			Radius:        r.Sampler.Radius,
		},
		Grid: session.GridConfig{
			DType:   core.DType(r.Grid.DType),
			Width:   r.Grid.Width,
			Height:  r.Grid.Height,
			Init:    r.Grid.Init,
			Density: r.Grid.Density,
		},
	}
}

// ExecutorLimits converts the executor section into an executor.Config.
func (c Config) ExecutorLimits() executor.Config {
	e := c.Executor
	return executor.Config{
		Rate:     e.Rate,
		Burst:    e.Burst,
		MaxCells: e.MaxCells,
		MaxSteps: e.MaxSteps,
		Memoize:  e.Memoize,
	}
}
