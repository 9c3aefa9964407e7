package shared

import (
	"context"
	"time"
)

// IdempotencyStore reserves client-supplied request keys so a retried payment
// submission is booked once. A key is held for its TTL unless released.
type IdempotencyStore interface {
	// Claim reserves key for ttl. It reports false while another claim on the
	// same key is still live.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim whose operation failed, so the client may retry
	Release(ctx context.Context, key string) error
	Close() error
}

// DefaultIdempotencyTTL is how long a payment idempotency key is kept
const DefaultIdempotencyTTL = 24 * time.Hour
