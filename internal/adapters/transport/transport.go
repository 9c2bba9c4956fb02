// Package transport delivers rendered messages over outbound channels.
// Real channel adapters live outside this module; what is here routes by
// channel and provides a logging sender for local runs.
package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/pkg/logger"
)

// Message is one outbound message.
type Message struct {
	EventID  string
	TalentID string
	Channel  model.Channel
	Address  string
	Subject  string
	Body     string
}

// Transport sends a message. Implementations must honor ctx cancellation.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, msg Message) error

// Send implements Transport.
func (f Func) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Router dispatches by channel, falling back to a default transport.
type Router struct {
	mu       sync.RWMutex
	routes   map[model.Channel]Transport
	fallback Transport
}

// NewRouter creates a router. fallback may be nil, in which case
// unrouted channels fail with ErrNoRoute.
func NewRouter(fallback Transport) *Router {
	return &Router{routes: make(map[model.Channel]Transport), fallback: fallback}
}

// Handle registers t for ch, replacing any previous route.
func (r *Router) Handle(ch model.Channel, t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[ch] = t
}

// Send implements Transport.
func (r *Router) Send(ctx context.Context, msg Message) error {
	r.mu.RLock()
	t, ok := r.routes[msg.Channel]
	if !ok {
		t = r.fallback
	}
	r.mu.RUnlock()

	if t == nil {
		return &Error{Channel: msg.Channel, Err: ErrNoRoute}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Channel: msg.Channel, Err: err}
	}
	if err := t.Send(ctx, msg); err != nil {
		return Wrap(msg.Channel, err)
	}
	return nil
}

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	log logger.Logger
}

// NewLogTransport creates a LogTransport on the given logger.
func NewLogTransport(log logger.Logger) *LogTransport {
	return &LogTransport{log: log}
}

// Send implements Transport.
func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Address == "" {
		return fmt.Errorf("%w: no %s address for talent %s", ErrNoAddress, msg.Channel, msg.TalentID)
	}
	t.log.Info(ctx, "outreach delivered",
		logger.String("event_id", msg.EventID),
		logger.String("talent_id", msg.TalentID),
		logger.String("channel", string(msg.Channel)),
		logger.String("subject", msg.Subject),
		logger.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
