package transport

import (
	"context"
	"fmt"
	"sync"

	"automata/internal/codec"
)

// Loopback delivers envelopes to in-process handlers by name.
type Loopback struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewLoopback returns a Loopback with no executors registered.
func NewLoopback() *Loopback {
	return &Loopback{handlers: make(map[string]Handler)}
}

// Register binds name to h, replacing any previous binding.
func (l *Loopback) Register(name string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
}

// Send hands a copy of req to the named handler. The handler runs on its own
// goroutine; Send returns as soon as either it finishes or ctx is done.
func (l *Loopback) Send(ctx context.Context, executor string, req codec.Envelope) (codec.Envelope, error) {
	l.mu.RLock()
	h, ok := l.handlers[executor]
	l.mu.RUnlock()
	if !ok {
		return codec.Envelope{}, fmt.Errorf("loopback: no executor %q", executor)
	}

	req = codec.Envelope{
		Metadata: append([]byte(nil), req.Metadata...),
		Payload:  append([]byte(nil), req.Payload...),
	}
	type result struct {
		env codec.Envelope
		err error
	}
	ch := make(chan result, 1)
	go func() {
		// Mirrors gin.Recovery on the HTTP path.
		defer func() {
			if v := recover(); v != nil {
				ch <- result{err: fmt.Errorf("loopback: executor %q panicked: %v", executor, v)}
			}
		}()
		env, err := h.Handle(ctx, req)
		ch <- result{env, err}
	}()
	select {
	case r := <-ch:
		return r.env, r.err
	case <-ctx.Done():
		return codec.Envelope{}, ctx.Err()
	}
}
