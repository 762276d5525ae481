package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"automata/internal/codec"
)

// maxResponseBytes bounds how much of an executor reply is read.
const maxResponseBytes = 64 << 20

// StatusError is a non-2xx executor reply.
type StatusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("executor returned %d %s: %s", e.Status, e.Code, e.Msg)
}

// HTTPClient sends envelopes to executors over HTTP. The executor name is
// its base URL, with or without scheme.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a client. timeout bounds every request independently
// of the caller's context; zero leaves it to the context.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Send posts req to executor's /v1/simulate.
func (c *HTTPClient) Send(ctx context.Context, executor string, req codec.Envelope) (codec.Envelope, error) {
	body, err := json.Marshal(SimulateRequest{Metadata: req.Metadata, Payload: req.Payload})
	if err != nil {
		return codec.Envelope{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(executor, "/v1/simulate"), bytes.NewReader(body))
	if err != nil {
		return codec.Envelope{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return codec.Envelope{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return codec.Envelope{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		_ = json.Unmarshal(data, &e)
		return codec.Envelope{}, &StatusError{Status: resp.StatusCode, Code: e.Code, Msg: e.Error}
	}

	var out SimulateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return codec.Envelope{}, fmt.Errorf("decode response: %w", err)
	}
	return codec.Envelope{Metadata: out.Metadata, Payload: out.Payload}, nil
}

// Alive reports whether executor answers GET /v1/alive.
func (c *HTTPClient) Alive(ctx context.Context, executor string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(executor, "/v1/alive"), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var out AliveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<10)).Decode(&out); err != nil {
		return false, fmt.Errorf("decode alive: %w", err)
	}
	return resp.StatusCode == http.StatusOK && out.Alive, nil
}

func endpoint(executor, path string) string {
	base := strings.TrimRight(executor, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return base + path
}
