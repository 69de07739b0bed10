package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Port: persistence for optimized routes a dispatcher chose to keep.
type RouteStore interface {
	// SaveRoute persists the route and its stops, returning the stored id.
	SaveRoute(ctx context.Context, result *domain.RouteResult) (string, error)
	// ListRoutes returns saved routes, newest first.
	ListRoutes(ctx context.Context) ([]*domain.RouteSummary, error)
	// GetRouteStops returns the stops of one saved route in visit order.
	GetRouteStops(ctx context.Context, routeID string) ([]domain.Stop, error)
}
