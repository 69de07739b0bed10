package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Content-addressed store of previously computed route results, keyed by
// request fingerprint. Entries expire after a fixed TTL; concurrency
// safety is delegated to the backing store's upsert semantics.
type RouteCache interface {
	// Get returns ok=false for missing or expired keys. Expired entries
	// are treated as absent, not purged on read.
	Get(ctx context.Context, key string) (*domain.RouteResult, bool, error)
	// Put upserts, resetting the entry's TTL window. Last write wins.
	Put(ctx context.Context, key string, result *domain.RouteResult) error
	// SweepExpired deletes expired entries and reports how many were
	// removed. Intended for a periodic external trigger.
	SweepExpired(ctx context.Context) (int, error)
}
