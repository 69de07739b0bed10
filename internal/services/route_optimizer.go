package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"

	"github.com/google/uuid"
)

// RouteOptimizer turns a set of customer records into an ordered,
// time-estimated visiting sequence.
//
// It orchestrates: request validation, cache lookup by request
// fingerprint, customer resolution, the mapping provider call, and
// reshaping of provider output into domain stops. Cache failures are
// logged and swallowed; provider failures propagate.
type RouteOptimizer struct {
	Customers ports.CustomerStore
	Provider  ports.RouteProvider
	Cache     ports.RouteCache
	Now       func() time.Time
}

func NewRouteOptimizer(
	customers ports.CustomerStore,
	provider ports.RouteProvider,
	cache ports.RouteCache,
) *RouteOptimizer {
	return &RouteOptimizer{
		Customers: customers,
		Provider:  provider,
		Cache:     cache,
		Now:       time.Now,
	}
}

// Customer metadata captured at resolution time, index-aligned with the
// destination list sent to the provider. The shared index is the join
// key back from provider output and must never drift.
type stopCandidate struct {
	customerID   string
	customerName string
	address      string
	locationID   string
	accessNotes  string
	latitude     *float64
	longitude    *float64
}

func (o *RouteOptimizer) Optimize(ctx context.Context, req domain.RouteRequest) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "routes.Optimize")(&err)

	if strings.TrimSpace(req.Origin) == "" {
		return nil, &domain.ValidationError{Msg: "origin required"}
	}

	if len(req.CustomerIDs) == 0 {
		return nil, &domain.ValidationError{Msg: "customer ids required"}
	}

	// Repeated ids collapse into a single stop; the first occurrence
	// keeps its position in the visit candidates.
	ids := dedupeIDs(req.CustomerIDs)
	cacheKey := domain.RouteCacheKey(req.Origin, ids)

	if o.Cache != nil {
		cached, ok, cerr := o.Cache.Get(ctx, cacheKey)
		switch {
		case cerr != nil:
			metrics.RouteCacheLookups.WithLabelValues("error").Inc()
			log.Printf("route cache read failed key=%s err=%v", cacheKey, cerr)
		case ok:
			metrics.RouteCacheLookups.WithLabelValues("hit").Inc()
			log.Printf("route cache hit key=%s", cacheKey)
			return cached, nil
		default:
			metrics.RouteCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	destinations := make([]string, 0, len(ids))
	candidates := make([]stopCandidate, 0, len(ids))

	for _, id := range ids {
		customer, err := o.Customers.GetCustomerByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("optimize route: get customer %q: %w", id, err)
		}

		if customer == nil {
			log.Printf("optimize route: skipping unknown customer id=%s", id)
			continue
		}

		location, ok := customer.RouteLocation()
		if !ok {
			log.Printf("optimize route: skipping customer without locations id=%s", id)
			continue
		}

		address := location.FormattedAddress()
		destinations = append(destinations, address)
		candidates = append(candidates, stopCandidate{
			customerID:   customer.ID,
			customerName: customer.Name,
			address:      address,
			locationID:   location.ID,
			accessNotes:  location.AccessNotes,
			latitude:     location.Latitude,
			longitude:    location.Longitude,
		})
	}

	if len(destinations) == 0 {
		return nil, &domain.ValidationError{Msg: "no valid customer addresses found"}
	}

	provided, err := o.Provider.ComputeRoute(ctx, req.Origin, destinations)
	if err != nil {
		return nil, fmt.Errorf("optimize route: compute route: %w", err)
	}

	stops := make([]domain.Stop, 0, len(provided.Waypoints))
	for i, wp := range provided.Waypoints {
		if wp.WaypointIndex < 0 || wp.WaypointIndex >= len(candidates) {
			return nil, fmt.Errorf(
				"optimize route: waypoint index %d out of range (destinations=%d)",
				wp.WaypointIndex, len(candidates),
			)
		}

		c := candidates[wp.WaypointIndex]
		stops = append(stops, domain.Stop{
			Order:             i + 1,
			CustomerID:        c.customerID,
			CustomerName:      c.customerName,
			Address:           c.address,
			LocationID:        c.locationID,
			AccessNotes:       c.accessNotes,
			Latitude:          c.latitude,
			Longitude:         c.longitude,
			EstimatedArrival:  wp.EstimatedArrival,
			TravelTimeSeconds: wp.TravelTimeSeconds,
			DistanceMeters:    wp.DistanceMeters,
		})
	}

	scheduled := o.Now()
	if req.ScheduledDate != nil {
		scheduled = *req.ScheduledDate
	}

	name := strings.TrimSpace(req.RouteName)
	if name == "" {
		name = "Route " + scheduled.Format("2006-01-02")
	}

	result := &domain.RouteResult{
		ID:                   "route_" + uuid.NewString(),
		Name:                 name,
		Origin:               req.Origin,
		ScheduledDate:        scheduled,
		Stops:                stops,
		TotalDistanceMeters:  provided.TotalDistanceMeters,
		TotalDurationSeconds: provided.TotalDurationSeconds,
		Polyline:             provided.Polyline,
		Bounds:               provided.Bounds,
		OptimizedOrder:       provided.WaypointOrder,
	}

	if o.Cache != nil {
		// Cache writes are best effort; a failed write must not fail the route.
		if cerr := o.Cache.Put(ctx, cacheKey, result); cerr != nil {
			log.Printf("route cache write failed key=%s err=%v", cacheKey, cerr)
		}
	}

	log.Printf("route optimized name=%q stops=%d total_dur=%ds", name, len(stops), result.TotalDurationSeconds)

	return result, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
