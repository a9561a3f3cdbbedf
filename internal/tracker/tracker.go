// Package tracker owns the supervisor loops that tie the stream pipeline
// together: connect, frame, decode, dispatch, and retry after backoff until
// shutdown. The notification and activity pipelines run as two structurally
// parallel instances.
package tracker

import (
	"context"
	"fmt"
	"time"
)

// ServiceInfo is the discovery collaborator: where the upstream agent
// service lives. The port may be unknown while the service is starting.
type ServiceInfo interface {
	Port() (int, bool)
	APIPrefix() string
	WorkingDirectory() string
}

// DefaultBackoff is the pause between supervisor cycles.
const DefaultBackoff = 2 * time.Second

// baseURL builds the agent service's local base URL.
func baseURL(port int, prefix string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, prefix)
}

// runLoop drives one pipeline until ctx is canceled: each cycle runs to
// completion or error, then sleeps backoff. Cancellation is only honored
// between cycles or during the sleep, never mid-frame; an in-progress read
// ends naturally when the HTTP request's context is canceled.
func runLoop(ctx context.Context, backoff time.Duration, cycle func(context.Context) error, onErr func(error)) {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	for {
		if ctx.Err() != nil {
			return
		}
		if err := cycle(ctx); err != nil && ctx.Err() == nil {
			onErr(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}
