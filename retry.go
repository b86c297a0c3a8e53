// SPDX-License-Identifier: MIT
// Copyright (c) 2026 updatekit authors
// Source: github.com/updatekit/deltapkg

package deltapkg

import (
	"context"
	"time"
)

// withRetry wraps a per-file operation with a bounded retry: up to attempts
// tries, with a fixed backoff between them. It is a pure higher-order
// wrapper carrying no global state — each call owns its own attempt count.
// The final error, if all attempts fail, is returned unwrapped so callers
// can still errors.Is against the underlying sentinel.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}
