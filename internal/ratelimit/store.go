package ratelimit

import (
	"context"
	"time"
)

// Store counts requests in fixed windows keyed by client identity.
type Store interface {
	// Incr increments the counter for key in the current window and returns
	// the post-increment count. The counter expires with the window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
