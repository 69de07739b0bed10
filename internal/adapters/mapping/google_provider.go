package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/platform/obs"
)

// GoogleProvider implements RouteProvider using the Google Directions API
// with waypoint optimization. The route is requested as a loop: the
// destination is the origin, and every customer address is an optimized
// waypoint in between.
//
// The provider is safe for concurrent use.
type GoogleProvider struct {
	session *http.Client
	apiKey  string
	baseURL string

	// Now supplies the departure time arrival estimates accrue from.
	Now func() time.Time
}

func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google maps api key is empty")
	}

	provider := &GoogleProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com/maps/api",
		Now:     time.Now,
	}

	return provider, nil
}

type latLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Bounds struct {
			Northeast latLngJSON `json:"northeast"`
			Southwest latLngJSON `json:"southwest"`
		} `json:"bounds"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// normalize ensures consistent provider input by collapsing whitespace.
func (p *GoogleProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ComputeRoute asks the Directions API for an optimized waypoint order
// and reshapes the legs into per-visit travel metrics. Waypoints come
// back in visiting order; each carries its index in the input list.
func (p *GoogleProvider) ComputeRoute(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ *domain.ProviderRoute, err error) {
	defer obs.Time(ctx, "google.ComputeRoute")(&err)

	normOrigin := p.normalize(origin)
	if normOrigin == "" {
		return nil, errors.New("compute route: origin must be non-empty")
	}

	if len(destinations) == 0 {
		return nil, errors.New("compute route: at least one destination is required")
	}

	waypointParam := make([]string, 0, 1+len(destinations))
	waypointParam = append(waypointParam, "optimize:true")
	for i, d := range destinations {
		nd := p.normalize(d)
		if nd == "" {
			return nil, fmt.Errorf("compute route: destination %d is empty", i)
		}
		waypointParam = append(waypointParam, nd)
	}

	endpoint := p.baseURL + "/directions/json"

	makeReq := func() (*http.Request, error) {
		req, err := p.newRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		q := url.Values{}
		q.Set("origin", normOrigin)
		q.Set("destination", normOrigin)
		q.Set("waypoints", strings.Join(waypointParam, "|"))
		q.Set("key", p.apiKey)
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	resp, err := p.doWithRetry(ctx, makeReq)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("google", "transport_error").Inc()

		var he *httpStatusError
		if errors.As(err, &he) {
			return nil, &domain.ProviderError{Status: fmt.Sprintf("HTTP_%d", he.Code), Err: err}
		}
		return nil, &domain.ProviderError{Status: "NETWORK_ERROR", Err: err}
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.ProviderCalls.WithLabelValues("google", "decode_error").Inc()
		return nil, &domain.ProviderError{Status: "INVALID_RESPONSE", Err: fmt.Errorf("decode directions response: %w", err)}
	}

	metrics.ProviderCalls.WithLabelValues("google", decoded.Status).Inc()

	if decoded.Status != "OK" {
		var cause error
		if decoded.ErrorMessage != "" {
			cause = errors.New(decoded.ErrorMessage)
		}
		return nil, &domain.ProviderError{Status: decoded.Status, Err: cause}
	}

	if len(decoded.Routes) == 0 {
		return nil, &domain.ProviderError{Status: "ZERO_RESULTS", Err: errors.New("directions response contains no routes")}
	}

	route := decoded.Routes[0]

	if len(route.WaypointOrder) != len(destinations) {
		return nil, &domain.ProviderError{
			Status: "INVALID_RESPONSE",
			Err:    fmt.Errorf("waypoint_order has %d entries for %d destinations", len(route.WaypointOrder), len(destinations)),
		}
	}

	// A loop through n waypoints has n+1 legs; the final leg returns to
	// the origin and counts toward totals but produces no stop.
	if len(route.Legs) < len(destinations) {
		return nil, &domain.ProviderError{
			Status: "INVALID_RESPONSE",
			Err:    fmt.Errorf("directions response has %d legs for %d destinations", len(route.Legs), len(destinations)),
		}
	}

	totalDistance := 0
	totalDuration := 0
	for _, leg := range route.Legs {
		totalDistance += leg.Distance.Value
		totalDuration += leg.Duration.Value
	}

	arrival := p.Now()
	waypoints := make([]domain.Waypoint, 0, len(destinations))
	for i := 0; i < len(destinations); i++ {
		leg := route.Legs[i]
		arrival = arrival.Add(time.Duration(leg.Duration.Value) * time.Second)

		waypoints = append(waypoints, domain.Waypoint{
			WaypointIndex:     route.WaypointOrder[i],
			EstimatedArrival:  arrival,
			TravelTimeSeconds: leg.Duration.Value,
			DistanceMeters:    leg.Distance.Value,
		})
	}

	return &domain.ProviderRoute{
		TotalDistanceMeters:  totalDistance,
		TotalDurationSeconds: totalDuration,
		Waypoints:            waypoints,
		WaypointOrder:        route.WaypointOrder,
		Polyline:             route.OverviewPolyline.Points,
		Bounds: &domain.Bounds{
			Northeast: domain.LatLng{Lat: route.Bounds.Northeast.Lat, Lng: route.Bounds.Northeast.Lng},
			Southwest: domain.LatLng{Lat: route.Bounds.Southwest.Lat, Lng: route.Bounds.Southwest.Lng},
		},
	}, nil
}
