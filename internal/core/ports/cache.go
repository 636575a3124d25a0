package ports

import (
	"context"
	"time"
)

// Cache is the expiring key-value store sitting in front of the route provider.
// Store failures are returned as errors and must never be reported as a miss.
type Cache interface {
	// Get returns the raw bytes for key. ok=false if not found or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set creates or overwrites key and arms its expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
