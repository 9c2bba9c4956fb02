package outreach

import (
	"time"

	"github.com/okian/talentflow/internal/domain/sequence"
	"github.com/okian/talentflow/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for events and log entries.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer sets the tracer used for engine spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithTransportTimeout bounds each transport call.
func WithTransportTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.transportTimeout = d
		}
	}
}

// WithBulkConcurrency caps the number of talents a bulk send works on at once.
func WithBulkConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bulkConcurrency = n
		}
	}
}

// WithContentLimit sets how many content pieces a render may reference.
func WithContentLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.contentLimit = n
		}
	}
}

// WithPolicy sets how unmet step conditions are handled.
func WithPolicy(p sequence.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithSenderName sets the signature used in rendered messages.
func WithSenderName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.senderName = name
		}
	}
}
