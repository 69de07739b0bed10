package mapping

import (
	"context"
	"errors"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
)

const (
	defaultStopInterval       = 15 * time.Minute
	defaultStopDistanceMeters = 5000
)

// StaticEstimator is the mapping provider used when no API credentials
// are configured. It visits destinations in the order given (identity
// waypoint order) and charges a fixed duration and distance per leg, so
// the rest of the pipeline and its tests run without network access.
//
// The per-stop increments are stand-ins for a real provider and are
// configurable rather than hard-coded.
type StaticEstimator struct {
	StopInterval       time.Duration
	StopDistanceMeters int
	Now                func() time.Time
}

func NewStaticEstimator(stopInterval time.Duration, stopDistanceMeters int) *StaticEstimator {
	if stopInterval <= 0 {
		stopInterval = defaultStopInterval
	}
	if stopDistanceMeters <= 0 {
		stopDistanceMeters = defaultStopDistanceMeters
	}

	return &StaticEstimator{
		StopInterval:       stopInterval,
		StopDistanceMeters: stopDistanceMeters,
		Now:                time.Now,
	}
}

// ComputeRoute returns a synthetic, unoptimized route. Arrival times
// accrue cumulatively from call time; totals scale with destination count.
func (p *StaticEstimator) ComputeRoute(
	ctx context.Context,
	origin string,
	destinations []string,
) (*domain.ProviderRoute, error) {
	if origin == "" {
		return nil, errors.New("compute route: origin must be non-empty")
	}

	if len(destinations) == 0 {
		return nil, errors.New("compute route: at least one destination is required")
	}

	metrics.ProviderCalls.WithLabelValues("static", "OK").Inc()

	legSeconds := int(p.StopInterval / time.Second)
	start := p.Now()

	waypoints := make([]domain.Waypoint, 0, len(destinations))
	order := make([]int, 0, len(destinations))
	for i := range destinations {
		waypoints = append(waypoints, domain.Waypoint{
			WaypointIndex:     i,
			EstimatedArrival:  start.Add(time.Duration(i+1) * p.StopInterval),
			TravelTimeSeconds: legSeconds,
			DistanceMeters:    p.StopDistanceMeters,
		})
		order = append(order, i)
	}

	return &domain.ProviderRoute{
		TotalDistanceMeters:  p.StopDistanceMeters * len(destinations),
		TotalDurationSeconds: legSeconds * len(destinations),
		Waypoints:            waypoints,
		WaypointOrder:        order,
	}, nil
}
