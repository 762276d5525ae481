package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"automata/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"Rule30", "Rule110"}, cfg.Requester.Sampler.Rules)
	assert.Equal(t, 100, cfg.Requester.Grid.Width)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  level: debug
requester:
  executors: [localhost:8091, localhost:8092]
  deadline: 3s
  sampler:
    rules: [Conway, HighLife]
    neighborhoods: [VonNeumann]
  grid:
    width: 32
    height: 16
    init: random
    density: 0.3
storage:
  driver: sqlite
  path: /tmp/automata.db
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 3*time.Second, cfg.Requester.Deadline)
	assert.Equal(t, []string{"localhost:8091", "localhost:8092"}, cfg.Requester.Executors)
	assert.Equal(t, 10, cfg.Requester.Sampler.MinSteps)

	s := cfg.Session()
	assert.Equal(t, core.Shape{16, 32}.Cells(), s.Grid.Width*s.Grid.Height)
	assert.Equal(t, core.Uint8, s.Grid.DType)
	assert.Equal(t, []string{"VonNeumann"}, s.Sampler.Neighborhoods)

	ex := cfg.ExecutorLimits()
	assert.Equal(t, Default().Executor.MaxSteps, ex.MaxSteps)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "bogus: 1\n",
		"bad level":        "log:\n  level: loud\n",
		"step range":       "requester:\n  sampler:\n    min_steps: 9\n    max_steps: 3\n",
		"sqlite sans path": "storage:\n  driver: sqlite\n",
		"bad driver":       "storage:\n  driver: postgres\n",
		"alpha":            "requester:\n  alpha: 2\n",
		"density":          "requester:\n  grid:\n    density: 1.5\n",
		"not yaml":         "requester: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, core.ErrInvalidInput)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "automata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("executor:\n  listen: \":9999\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Executor.Listen)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
