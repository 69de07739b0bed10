package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Contract for computing an optimized visiting order over a set of
// destination addresses.
type RouteProvider interface {
	// ComputeRoute returns the optimized route from origin through all
	// destinations and back to origin. Waypoint indices in the result
	// refer to positions in the destinations slice.
	ComputeRoute(ctx context.Context, origin string, destinations []string) (*domain.ProviderRoute, error)
}
