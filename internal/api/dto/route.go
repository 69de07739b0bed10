package dto

import "time"

type OptimizeRouteRequest struct {
	Origin        string     `json:"origin"`
	CustomerIDs   []string   `json:"customer_ids"`
	RouteName     string     `json:"route_name"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

type StopResponse struct {
	Order             int       `json:"order"`
	CustomerID        string    `json:"customer_id"`
	CustomerName      string    `json:"customer_name"`
	Address           string    `json:"address"`
	LocationID        string    `json:"location_id,omitempty"`
	AccessNotes       string    `json:"access_notes,omitempty"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	EstimatedArrival  time.Time `json:"estimated_arrival"`
	TravelTimeSeconds int       `json:"travel_time_seconds"`
	DistanceMeters    int       `json:"distance_meters"`
}

type LatLngResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type BoundsResponse struct {
	Northeast LatLngResponse `json:"northeast"`
	Southwest LatLngResponse `json:"southwest"`
}

type RouteResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Origin               string          `json:"origin"`
	ScheduledDate        time.Time       `json:"scheduled_date"`
	TotalDistanceMeters  int             `json:"total_distance_meters"`
	TotalDurationSeconds int             `json:"total_duration_seconds"`
	Stops                []StopResponse  `json:"stops"`
	Polyline             string          `json:"polyline,omitempty"`
	Bounds               *BoundsResponse `json:"bounds,omitempty"`
	OptimizedOrder       []int           `json:"optimized_order"`
}

type OptimizeRouteResponse struct {
	Success bool          `json:"success"`
	Route   RouteResponse `json:"route"`
}

type SaveRouteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type RouteSummaryResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Origin               string    `json:"origin"`
	Date                 time.Time `json:"date"`
	Status               string    `json:"status"`
	CustomerCount        int       `json:"customer_count"`
	TotalDistanceMeters  int       `json:"total_distance_meters"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
}

type RouteStopsResponse struct {
	Success bool           `json:"success"`
	RouteID string         `json:"route_id"`
	Stops   []StopResponse `json:"stops"`
}

type ListRoutesResponse struct {
	Success bool                   `json:"success"`
	Routes  []RouteSummaryResponse `json:"routes"`
}
