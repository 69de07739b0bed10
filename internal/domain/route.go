package domain

import "time"

// RouteRequest is the input to a route optimization: a starting address
// and the customers to visit. The route is circular; the origin is also
// the implied return destination.
type RouteRequest struct {
	Origin        string
	CustomerIDs   []string
	RouteName     string
	ScheduledDate *time.Time
}

// Stop is one resolved visiting point in an optimized route.
// Order is 1-based and excludes the origin and return legs.
type Stop struct {
	Order             int
	CustomerID        string
	CustomerName      string
	Address           string
	LocationID        string
	AccessNotes       string
	Latitude          *float64
	Longitude         *float64
	EstimatedArrival  time.Time
	TravelTimeSeconds int
	DistanceMeters    int
}

// RouteResult is the output of a single optimization call. It is
// constructed fresh per call; a cache hit returns a deserialized copy.
type RouteResult struct {
	ID                   string
	Name                 string
	Origin               string
	ScheduledDate        time.Time
	Stops                []Stop
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Polyline             string
	Bounds               *Bounds
	OptimizedOrder       []int
}

type LatLng struct {
	Lat float64
	Lng float64
}

// Bounding box of the route geometry, when the provider reports one.
type Bounds struct {
	Northeast LatLng
	Southwest LatLng
}

// ProviderRoute is the raw optimization result from a mapping provider,
// expressed in input-list indices rather than domain entities.
type ProviderRoute struct {
	TotalDistanceMeters  int
	TotalDurationSeconds int
	Waypoints            []Waypoint
	WaypointOrder        []int
	Polyline             string
	Bounds               *Bounds
}

// Waypoint is one visit in the provider's returned order. WaypointIndex
// references the destination's position in the input list and is the
// join key back to customer metadata.
type Waypoint struct {
	WaypointIndex     int
	EstimatedArrival  time.Time
	TravelTimeSeconds int
	DistanceMeters    int
}

// RouteSummary is a persisted route as listed in history views.
type RouteSummary struct {
	ID                   string
	Name                 string
	Origin               string
	ScheduledDate        time.Time
	Status               string
	StopCount            int
	TotalDistanceMeters  int
	TotalDurationSeconds int
	CreatedAt            time.Time
}
