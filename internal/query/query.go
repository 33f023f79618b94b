// Package query wraps a model backend with bounded retry and JSON coercion.
//
// A transport failure and an unparseable reply are the same thing to a
// caller: one spent attempt. The client retries immediately up to its
// attempt budget and reports exhaustion as "no result" rather than an
// error, so a flaky model degrades annotations instead of aborting runs.
package query

import (
	"context"
	"log/slog"

	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/extract"
)

// DefaultAttempts is the attempt budget used when none is configured.
const DefaultAttempts = 3

// Client issues model exchanges and coerces the replies into JSON objects.
type Client struct {
	backend  backend.Backend
	attempts int
}

// New creates a query client with the given attempt budget. Budgets below
// one are raised to the default.
func New(b backend.Backend, attempts int) *Client {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Client{backend: b, attempts: attempts}
}

// JSON sends the messages to the backend and returns the first reply that
// coerces to a JSON object. Each call is independent; no rate-limit state
// is shared between calls.
func (c *Client) JSON(ctx context.Context, messages []backend.Message) (map[string]any, bool) {
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, false
		}

		content, err := c.backend.Exchange(ctx, messages)
		if err != nil {
			slog.Warn("model exchange failed",
				"backend", c.backend.Name(),
				"attempt", attempt,
				"max_attempts", c.attempts,
				"error", err)
			continue
		}

		if obj, ok := extract.Object(content); ok {
			return obj, true
		}
		slog.Warn("no JSON object in model reply",
			"backend", c.backend.Name(),
			"attempt", attempt,
			"max_attempts", c.attempts,
			"reply_length", len(content))
	}
	return nil, false
}
