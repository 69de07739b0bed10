package cache

import (
	"context"
	"testing"
	"time"

	"field-route-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRouteCache(client), mr
}

func sampleResult() *domain.RouteResult {
	arrival := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	return &domain.RouteResult{
		ID:            "route_abc",
		Name:          "Route 2026-03-01",
		Origin:        "1901 W Madison St, Phoenix, AZ 85009",
		ScheduledDate: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Stops: []domain.Stop{
			{
				Order:             1,
				CustomerID:        "c1",
				CustomerName:      "Alpha Plumbing",
				Address:           "1 A St, Phoenix, AZ 85001",
				EstimatedArrival:  arrival,
				TravelTimeSeconds: 900,
				DistanceMeters:    5000,
			},
		},
		TotalDistanceMeters:  5000,
		TotalDurationSeconds: 900,
		OptimizedOrder:       []int{0},
	}
}

func TestRedisRouteCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	want := sampleResult()
	if err := c.Put(ctx, "key1", want); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}

	if got.ID != want.ID || got.Name != want.Name || got.Origin != want.Origin {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if len(got.Stops) != 1 || got.Stops[0].CustomerID != "c1" {
		t.Fatalf("stops did not round trip: %+v", got.Stops)
	}
	if !got.Stops[0].EstimatedArrival.Equal(want.Stops[0].EstimatedArrival) {
		t.Fatalf("arrival did not round trip: %v", got.Stops[0].EstimatedArrival)
	}
	if got.TotalDistanceMeters != 5000 || got.TotalDurationSeconds != 900 {
		t.Fatalf("totals did not round trip: %+v", got)
	}
}

func TestRedisRouteCacheMissForUnknownKey(t *testing.T) {
	c, _ := newTestRedisCache(t)

	_, ok, err := c.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss for unknown key")
	}
}

func TestRedisRouteCacheExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "key1", sampleResult()); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// One second past the TTL the entry must read as absent.
	mr.FastForward(TTL + time.Second)

	_, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss after TTL elapsed")
	}
}

func TestRedisRouteCacheEnvelopeExpiryCheckedOnRead(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	writeTime := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return writeTime }
	if err := c.Put(ctx, "key1", sampleResult()); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Redis has not evicted yet, but the envelope says the entry is stale.
	c.Now = func() time.Time { return writeTime.Add(TTL + time.Second) }

	_, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss once envelope expiry passed")
	}
}

func TestRedisRouteCacheSweepExpired(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	writeTime := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return writeTime }
	if err := c.Put(ctx, "stale", sampleResult()); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	c.Now = func() time.Time { return writeTime.Add(TTL + time.Minute) }
	if err := c.Put(ctx, "fresh", sampleResult()); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	removed, err := c.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, ok, _ := c.Get(ctx, "fresh"); !ok {
		t.Fatalf("fresh entry must survive the sweep")
	}
}

func TestRedisRouteCacheLastWriteWins(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	first := sampleResult()
	second := sampleResult()
	second.ID = "route_newer"

	if err := c.Put(ctx, "key1", first); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := c.Put(ctx, "key1", second); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "key1")
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if got.ID != "route_newer" {
		t.Fatalf("expected the newer entry, got %q", got.ID)
	}
}
