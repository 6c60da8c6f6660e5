package client

import (
	"context"
	"time"
)

// ProbeOnce reports whether the server answered a single probe request.
// Transport failures are treated as unreachable, never propagated.
func (c *Client) ProbeOnce(ctx context.Context) bool {
	return c.transport.get(ctx, "probe", "/", nil) == nil
}

// WaitUntilAvailable polls the server at a fixed interval until it answers
// or the timeout elapses. It probes immediately, sleeps the interval
// (clamped to the remaining deadline) between probes, and returns false on
// timeout or context cancellation without raising.
func (c *Client) WaitUntilAvailable(ctx context.Context, timeout time.Duration) bool {
	deadline := c.clock.Now().Add(timeout)
	for {
		if c.ProbeOnce(ctx) {
			return true
		}
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			return false
		}
		wait := c.pollInterval
		if wait > remaining {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false
		case <-c.clock.After(wait):
		}
	}
}
