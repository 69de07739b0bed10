package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

func f64(v float64) *float64 { return &v }

type fakeCustomerStore struct {
	customers map[string]*domain.Customer
}

func (s *fakeCustomerStore) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers[id], nil
}

func (s *fakeCustomerStore) ListRoutable(ctx context.Context, _ ports.CustomerFilter) ([]*domain.Customer, error) {
	return nil, nil
}

type fakeProvider struct {
	calls        int
	destinations []string
	route        *domain.ProviderRoute
	err          error
}

func (p *fakeProvider) ComputeRoute(ctx context.Context, origin string, destinations []string) (*domain.ProviderRoute, error) {
	p.calls++
	p.destinations = destinations
	if p.err != nil {
		return nil, p.err
	}
	if p.route != nil {
		return p.route, nil
	}

	// Identity-order route with one-minute legs.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	waypoints := make([]domain.Waypoint, 0, len(destinations))
	order := make([]int, 0, len(destinations))
	for i := range destinations {
		waypoints = append(waypoints, domain.Waypoint{
			WaypointIndex:     i,
			EstimatedArrival:  base.Add(time.Duration(i+1) * time.Minute),
			TravelTimeSeconds: 60,
			DistanceMeters:    1000,
		})
		order = append(order, i)
	}
	return &domain.ProviderRoute{
		TotalDistanceMeters:  1000 * len(destinations),
		TotalDurationSeconds: 60 * len(destinations),
		Waypoints:            waypoints,
		WaypointOrder:        order,
	}, nil
}

type fakeCache struct {
	entries map[string]*domain.RouteResult
	getErr  error
	putErr  error
	puts    int
	lastKey string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.RouteResult)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*domain.RouteResult, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	result, ok := c.entries[key]
	return result, ok, nil
}

func (c *fakeCache) Put(ctx context.Context, key string, result *domain.RouteResult) error {
	c.puts++
	c.lastKey = key
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[key] = result
	return nil
}

func (c *fakeCache) SweepExpired(ctx context.Context) (int, error) { return 0, nil }

func customersFixture() map[string]*domain.Customer {
	return map[string]*domain.Customer{
		"a": {ID: "a", Name: "Alpha Plumbing", Locations: []domain.ServiceLocation{
			{ID: "la", StreetAddress: "1 A St", City: "Phoenix", State: "AZ", PostalCode: "85001", IsPrimary: true, AccessNotes: "gate code 1234"},
		}},
		"b": {ID: "b", Name: "Bravo HVAC", Locations: []domain.ServiceLocation{
			{ID: "lb1", StreetAddress: "2 B St", City: "Phoenix", State: "AZ", PostalCode: "85002"},
			{ID: "lb2", StreetAddress: "3 B St", City: "Phoenix", State: "AZ", PostalCode: "85002", Latitude: f64(33.4), Longitude: f64(-112.1)},
		}},
		"c": {ID: "c", Name: "Charlie Electric", Locations: []domain.ServiceLocation{
			{ID: "lc", StreetAddress: "4 C St", City: "Phoenix", State: "AZ", PostalCode: "85003", IsPrimary: true},
		}},
	}
}

func newTestOptimizer(provider *fakeProvider, cache *fakeCache) *RouteOptimizer {
	o := NewRouteOptimizer(&fakeCustomerStore{customers: customersFixture()}, provider, nil)
	if cache != nil {
		o.Cache = cache
	}
	o.Now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return o
}

func TestOptimizeValidation(t *testing.T) {
	o := newTestOptimizer(&fakeProvider{}, newFakeCache())

	_, err := o.Optimize(context.Background(), domain.RouteRequest{Origin: "", CustomerIDs: []string{"a"}})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty origin, got %v", err)
	}

	_, err = o.Optimize(context.Background(), domain.RouteRequest{Origin: "X", CustomerIDs: nil})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty customer ids, got %v", err)
	}
}

func TestOptimizeAllCustomersUnresolvable(t *testing.T) {
	provider := &fakeProvider{}
	o := newTestOptimizer(provider, newFakeCache())

	_, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"nonexistent"},
	})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Msg != "no valid customer addresses found" {
		t.Fatalf("unexpected message %q", ve.Msg)
	}
	if provider.calls != 0 {
		t.Fatalf("provider should not be called, got %d calls", provider.calls)
	}
}

func TestOptimizeSkipsMissingCustomers(t *testing.T) {
	provider := &fakeProvider{}
	o := newTestOptimizer(provider, newFakeCache())

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a", "nonexistent", "c"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(result.Stops))
	}
	if result.Stops[0].CustomerID != "a" || result.Stops[1].CustomerID != "c" {
		t.Fatalf("unexpected stop customers: %q, %q", result.Stops[0].CustomerID, result.Stops[1].CustomerID)
	}
}

func TestOptimizeCacheHitShortCircuitsProvider(t *testing.T) {
	provider := &fakeProvider{}
	routeCache := newFakeCache()
	o := newTestOptimizer(provider, routeCache)

	cached := &domain.RouteResult{ID: "route_cached", Name: "Cached", Origin: "X"}
	routeCache.entries[domain.RouteCacheKey("X", []string{"a", "b"})] = cached

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"b", "a"}, // different request order, same set
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ID != "route_cached" {
		t.Fatalf("expected cached result, got %q", result.ID)
	}
	if provider.calls != 0 {
		t.Fatalf("provider must not be called on a cache hit, got %d calls", provider.calls)
	}
}

func TestOptimizeStopOrderingFidelity(t *testing.T) {
	arrival := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		route: &domain.ProviderRoute{
			TotalDistanceMeters:  6000,
			TotalDurationSeconds: 1800,
			// Provider visits C first, then A, then B.
			Waypoints: []domain.Waypoint{
				{WaypointIndex: 2, EstimatedArrival: arrival.Add(10 * time.Minute), TravelTimeSeconds: 600, DistanceMeters: 2000},
				{WaypointIndex: 0, EstimatedArrival: arrival.Add(20 * time.Minute), TravelTimeSeconds: 600, DistanceMeters: 2000},
				{WaypointIndex: 1, EstimatedArrival: arrival.Add(30 * time.Minute), TravelTimeSeconds: 600, DistanceMeters: 2000},
			},
			WaypointOrder: []int{2, 0, 1},
		},
	}

	o := newTestOptimizer(provider, newFakeCache())

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a", "b", "c"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(result.Stops))
	}

	wantCustomers := []string{"c", "a", "b"}
	for i, want := range wantCustomers {
		stop := result.Stops[i]
		if stop.CustomerID != want {
			t.Errorf("stop %d customer = %q, want %q", i, stop.CustomerID, want)
		}
		if stop.Order != i+1 {
			t.Errorf("stop %d order = %d, want %d", i, stop.Order, i+1)
		}
	}

	if result.Stops[0].CustomerName != "Charlie Electric" {
		t.Fatalf("first stop name = %q, want Charlie Electric", result.Stops[0].CustomerName)
	}
}

func TestOptimizeDeduplicatesCustomerIDs(t *testing.T) {
	provider := &fakeProvider{}
	o := newTestOptimizer(provider, newFakeCache())

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a", "a", "b", "a"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.destinations) != 2 {
		t.Fatalf("expected 2 destinations sent to provider, got %d", len(provider.destinations))
	}
	if len(result.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(result.Stops))
	}
}

func TestOptimizeCacheWriteFailureIsNonFatal(t *testing.T) {
	provider := &fakeProvider{}
	routeCache := newFakeCache()
	routeCache.putErr = &domain.CacheError{Op: "put", Err: errors.New("boom")}
	o := newTestOptimizer(provider, routeCache)

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a"},
	})
	if err != nil {
		t.Fatalf("optimize must succeed despite cache write failure, got %v", err)
	}
	if len(result.Stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(result.Stops))
	}
	if routeCache.puts != 1 {
		t.Fatalf("expected one cache write attempt, got %d", routeCache.puts)
	}
}

func TestOptimizeCacheReadFailureFallsThrough(t *testing.T) {
	provider := &fakeProvider{}
	routeCache := newFakeCache()
	routeCache.getErr = &domain.CacheError{Op: "get", Err: errors.New("boom")}
	o := newTestOptimizer(provider, routeCache)

	_, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a"},
	})
	if err != nil {
		t.Fatalf("optimize must succeed despite cache read failure, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected fresh computation after cache read failure, got %d provider calls", provider.calls)
	}
}

func TestOptimizeProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: &domain.ProviderError{Status: "OVER_QUERY_LIMIT"}}
	o := newTestOptimizer(provider, newFakeCache())

	_, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a"},
	})

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != "OVER_QUERY_LIMIT" {
		t.Fatalf("status = %q, want OVER_QUERY_LIMIT", pe.Status)
	}
}

func TestOptimizeDefaultsAndCaching(t *testing.T) {
	provider := &fakeProvider{}
	routeCache := newFakeCache()
	o := newTestOptimizer(provider, routeCache)

	result, err := o.Optimize(context.Background(), domain.RouteRequest{
		Origin:      "X",
		CustomerIDs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Name != "Route 2026-03-01" {
		t.Fatalf("default name = %q, want Route 2026-03-01", result.Name)
	}
	if result.ID == "" {
		t.Fatalf("expected a generated route id")
	}
	if !result.ScheduledDate.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("default scheduled date = %v", result.ScheduledDate)
	}

	if routeCache.puts != 1 {
		t.Fatalf("expected the result to be cached, puts=%d", routeCache.puts)
	}
	wantKey := domain.RouteCacheKey("X", []string{"a", "b"})
	if routeCache.lastKey != wantKey {
		t.Fatalf("cached under %q, want %q", routeCache.lastKey, wantKey)
	}

	// Location priority: customer b has no primary, second location has
	// coordinates, so the coordinate-bearing address must be used.
	if result.Stops[1].Address != "3 B St, Phoenix, AZ 85002" {
		t.Fatalf("stop address = %q, want coordinate-bearing location", result.Stops[1].Address)
	}
}

func TestOptimizeFreshIDPerCall(t *testing.T) {
	provider := &fakeProvider{}
	o := newTestOptimizer(provider, nil) // no cache: each call recomputes

	first, err := o.Optimize(context.Background(), domain.RouteRequest{Origin: "X", CustomerIDs: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := o.Optimize(context.Background(), domain.RouteRequest{Origin: "X", CustomerIDs: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("route ids must not be reused across optimizations: %q", first.ID)
	}
}
