// Package app wires configuration, storage, transport and the requester or
// executor into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"automata/internal/config"
	"automata/internal/executor"
	"automata/internal/scoring"
	"automata/internal/session"
	"automata/internal/storage"
	"automata/internal/transport"
)

// shutdownGrace bounds how long the executor server drains on shutdown.
const shutdownGrace = 5 * time.Second

// App owns the long-lived resources of one process.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	store  storage.Store
	ledger *storage.Ledger
}

// New opens the configured store and builds the score ledger.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.NewStore(cfg.Storage.Driver, cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init %s store: %w", cfg.Storage.Driver, err)
	}
	ledger, err := storage.NewLedger(store, cfg.Requester.Alpha)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &App{cfg: cfg, logger: logger, store: store, ledger: ledger}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// Config returns the effective configuration.
func (a *App) Config() config.Config { return a.cfg }

// Ledger exposes the score ledger.
func (a *App) Ledger() *storage.Ledger { return a.ledger }

// Transport returns the requester's transport. With local > 0 it starts that
// many in-process executors and points the requester at them; otherwise it
// dials the configured executors over HTTP.
func (a *App) Transport(local int) session.Transport {
	if local <= 0 {
		return transport.NewHTTPClient(a.cfg.Requester.Deadline)
	}
	lb := transport.NewLoopback()
	names := make([]string, local)
	for i := range names {
		names[i] = fmt.Sprintf("local-%d", i)
		lb.Register(names[i], executor.New(a.cfg.ExecutorLimits(), a.logger.With("executor", names[i])))
	}
	a.cfg.Requester.Executors = names
	return lb
}

// Requester builds a requester that records into the ledger.
func (a *App) Requester(t session.Transport) (*session.Requester, error) {
	if len(a.cfg.Requester.Executors) == 0 {
		return nil, errors.New("no executors configured")
	}
	scorer, err := scoring.New(a.cfg.Requester.Scorer)
	if err != nil {
		return nil, err
	}
	return session.NewRequester(a.cfg.Session(), t, scorer,
		session.WithRecorder(a.ledger),
		session.WithRoundSink(a.ledger),
		session.WithLogger(a.logger),
	)
}

// RunRequester runs the configured number of rounds, calling fn after each.
func (a *App) RunRequester(ctx context.Context, t session.Transport, fn func(session.RoundResult)) error {
	req, err := a.Requester(t)
	if err != nil {
		return err
	}
	return req.Run(ctx, a.cfg.Requester.Rounds, a.cfg.Requester.Interval, fn)
}

// Handler returns the executor HTTP handler.
func (a *App) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	ex := executor.New(a.cfg.ExecutorLimits(), a.logger)
	return transport.NewRouter(ex, a.logger)
}

// ServeExecutor serves the executor API until ctx is cancelled, then drains.
func (a *App) ServeExecutor(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Executor.Listen,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Executor listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	a.logger.Info("Executor shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
