package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automata/internal/config"
	"automata/internal/session"
)

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestLocalRoundsRecordScores(t *testing.T) {
	cfg := config.Default()
	cfg.Requester.Rounds = 2
	cfg.Requester.Interval = 0
	cfg.Requester.Grid.Width = 21
	cfg.Storage = config.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "a.db")}
	a := newApp(t, cfg)

	tr := a.Transport(3)
	var rounds []session.RoundResult
	require.NoError(t, a.RunRequester(context.Background(), tr, func(r session.RoundResult) {
		rounds = append(rounds, r)
	}))
	require.Len(t, rounds, 2)
	for _, o := range rounds[0].Outcomes {
		assert.Equal(t, session.Verified, o.State)
		assert.Equal(t, 1.0, o.Score)
	}

	standings, err := a.Ledger().Standings(context.Background())
	require.NoError(t, err)
	require.Len(t, standings, 3)
	for _, s := range standings {
		assert.Equal(t, 2, s.Rounds)
		assert.InDelta(t, 1.0, s.Score, 1e-9)
	}
}

func TestHTTPExecutorRound(t *testing.T) {
	cfg := config.Default()
	cfg.Requester.Grid.Width = 21
	srvApp := newApp(t, cfg)
	srv := httptest.NewServer(srvApp.Handler())
	defer srv.Close()

	cfg.Requester.Executors = []string{srv.URL}
	a := newApp(t, cfg)
	req, err := a.Requester(a.Transport(0))
	require.NoError(t, err)

	res, err := req.RunRound(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, session.Verified, res.Outcomes[0].State)
}

func TestRequesterNeedsExecutors(t *testing.T) {
	a := newApp(t, config.Default())
	_, err := a.Requester(a.Transport(0))
	assert.Error(t, err)
}

func TestServeExecutorStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Executor.Listen = "127.0.0.1:0"
	a := newApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeExecutor(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not shut down")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	f := NewFlags()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.BindGlobal(fs)
	f.BindRequester(fs)
	f.BindExecutor(fs)
	require.NoError(t, fs.Parse([]string{"--executors=a:1,b:2", "--rounds=0", "--log-level=debug"}))

	cfg, err := f.Load(fs.Changed)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Requester.Executors)
	assert.Equal(t, 0, cfg.Requester.Rounds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.Default().Executor.Listen, cfg.Executor.Listen)
}

func TestHandlerServesAlive(t *testing.T) {
	a := newApp(t, config.Default())
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/alive", nil)
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
