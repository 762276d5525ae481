package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/engine"
	"automata/internal/executor"
	"automata/internal/rules"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sealed(t *testing.T, steps int, rule string) (*core.Grid, engine.Params, codec.Envelope) {
	t.Helper()
	g, err := core.Simple(core.Uint8, core.Shape{15})
	require.NoError(t, err)
	p, err := engine.NewParams(steps, rule, 1, "Moore")
	require.NoError(t, err)
	env, err := codec.SealParams(g, p)
	require.NoError(t, err)
	return g, p, env
}

func post(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/v1/simulate", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleSimulate(t *testing.T) {
	g, p, env := sealed(t, 5, "Rule30")
	router := NewRouter(executor.New(executor.Config{}, nil), nil)

	w := post(t, router, SimulateRequest{Metadata: env.Metadata, Payload: env.Payload})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	got, err := codec.DecodePayload(resp.Metadata, resp.Payload)
	require.NoError(t, err)

	want, err := engine.Evolve(context.Background(), g, p)
	require.NoError(t, err)
	assert.True(t, want.Last().Equal(got))
}

func TestHandleSimulateErrorCodes(t *testing.T) {
	router := NewRouter(executor.New(executor.Config{MaxSteps: 10}, nil), nil)

	_, _, tampered := sealed(t, 3, "Rule30")
	tampered.Payload[0] ^= 1

	_, _, big := sealed(t, 50, "Rule30")

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing fields", map[string]string{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"tampered", SimulateRequest{Metadata: tampered.Metadata, Payload: tampered.Payload}, http.StatusUnprocessableEntity, "INTEGRITY"},
		{"garbage metadata", SimulateRequest{Metadata: []byte("{"), Payload: []byte{1}}, http.StatusBadRequest, "MALFORMED_SHAPE"},
		{"too many steps", SimulateRequest{Metadata: big.Metadata, Payload: big.Payload}, http.StatusRequestEntityTooLarge, "TOO_LARGE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, router, tc.body)
			assert.Equal(t, tc.status, w.Code)
			var e ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestHandleSimulateBodyLimit(t *testing.T) {
	ex := executor.New(executor.Config{MaxCells: 16}, nil)
	require.Positive(t, ex.MaxRequestBytes())
	router := NewRouter(ex, nil)

	_, _, env := sealed(t, 2, "Rule30")
	w := post(t, router, SimulateRequest{Metadata: env.Metadata, Payload: env.Payload})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	huge := make([]byte, 2*ex.MaxRequestBytes())
	w = post(t, router, SimulateRequest{Metadata: env.Metadata, Payload: huge})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "TOO_LARGE", e.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{executor.ErrBusy, "BUSY"},
		{rules.ErrUnknownRule, "UNKNOWN_RULE"},
		{core.ErrInvalidInput, "INVALID_INPUT"},
		{core.ErrSimulation, "SIMULATION"},
		{context.DeadlineExceeded, "TIMEOUT"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tc := range tests {
		_, code := classify(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestHandleAlive(t *testing.T) {
	router := NewRouter(executor.New(executor.Config{}, nil), nil)
	req, _ := http.NewRequest(http.MethodGet, "/v1/alive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alive":true}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(executor.New(executor.Config{}, nil), nil)
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewRouter(executor.New(executor.Config{}, nil), nil))
	defer srv.Close()

	_, _, env := sealed(t, 4, "Rule110")
	c := NewHTTPClient(5 * time.Second)

	resp, err := c.Send(context.Background(), srv.URL, env)
	require.NoError(t, err)
	require.NoError(t, codec.Verify(resp))

	alive, err := c.Alive(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, alive)

	env.Payload[2] ^= 1
	_, err = c.Send(context.Background(), srv.URL, env)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "INTEGRITY", se.Code)
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/v1/alive", endpoint("localhost:9000", "/v1/alive"))
	assert.Equal(t, "https://ex.test/v1/alive", endpoint("https://ex.test/", "/v1/alive"))
}

type stall struct{}

func (stall) Handle(ctx context.Context, _ codec.Envelope) (codec.Envelope, error) {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return codec.Envelope{}, nil
}

func TestLoopback(t *testing.T) {
	l := NewLoopback()
	l.Register("honest", executor.New(executor.Config{}, nil))
	l.Register("stall", stall{})

	_, _, env := sealed(t, 2, "Rule30")
	resp, err := l.Send(context.Background(), "honest", env)
	require.NoError(t, err)
	require.NoError(t, codec.Verify(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Send(ctx, "stall", env)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = l.Send(context.Background(), "ghost", env)
	assert.Error(t, err)
}

func TestLoopbackIsolatesRequest(t *testing.T) {
	var seen codec.Envelope
	l := NewLoopback()
	l.Register("mutator", handlerFunc(func(_ context.Context, req codec.Envelope) (codec.Envelope, error) {
		req.Payload[0] = 0xFF
		seen = req
		return req, nil
	}))

	_, _, env := sealed(t, 1, "Rule30")
	before := append([]byte(nil), env.Payload...)
	_, err := l.Send(context.Background(), "mutator", env)
	require.NoError(t, err)
	assert.Equal(t, before, env.Payload)
	assert.Equal(t, byte(0xFF), seen.Payload[0])
}

func TestLoopbackRecoversPanic(t *testing.T) {
	l := NewLoopback()
	l.Register("broken", handlerFunc(func(context.Context, codec.Envelope) (codec.Envelope, error) {
		panic("index out of range")
	}))

	_, _, env := sealed(t, 1, "Rule30")
	_, err := l.Send(context.Background(), "broken", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

type handlerFunc func(ctx context.Context, req codec.Envelope) (codec.Envelope, error)

func (f handlerFunc) Handle(ctx context.Context, req codec.Envelope) (codec.Envelope, error) {
	return f(ctx, req)
}
