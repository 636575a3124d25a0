package ports

import (
	"context"
	"time"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

// RouteProvider fetches an optimized route from the external provider.
// A decodable response is returned as-is even when its status code reports a
// provider-side failure.
type RouteProvider interface {
	Fetch(ctx context.Context, coordinates route.Coordinates) (route.Result, error)
}

// RouteOptimizer serves optimized routes with cache-aside semantics.
type RouteOptimizer interface {
	Optimize(ctx context.Context, coordinates route.Coordinates) (*route.Lookup, error)
}

// RouteMetrics records orchestrator outcomes. Implementations must be safe for concurrent use.
type RouteMetrics interface {
	ObserveOutcome(outcome route.Outcome)
	ObserveCacheWriteFailure()
	ObserveUpstream(d time.Duration, err error)
}
