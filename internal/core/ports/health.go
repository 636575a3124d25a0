package ports

import "context"

// HealthChecker probes one backing dependency of the proxy for /health.
type HealthChecker interface {
	Name() string
	// Check returns nil when the dependency answered within ctx.
	Check(ctx context.Context) error
}
