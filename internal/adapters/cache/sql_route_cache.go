package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
)

// TTL is the fixed lifetime of a cached route result.
const TTL = 24 * time.Hour

// SQLRouteCache is a Postgres-backed cache for optimized route results,
// keyed by request fingerprint. Route data is stored as an opaque JSON
// blob; the cache does not interpret its structure.
type SQLRouteCache struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db, Now: time.Now}
}

// Get fetches an unexpired cached result. Expired rows are treated as
// absent and left for SweepExpired to remove.
func (s *SQLRouteCache) Get(ctx context.Context, key string) (_ *domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, &domain.CacheError{Op: "get", Err: errors.New("db is nil")}
	}

	if key == "" {
		return nil, false, &domain.CacheError{Op: "get", Err: errors.New("key must not be empty")}
	}

	q := `
	SELECT route_data
	FROM route_cache
	WHERE route_key = $1
		AND expires_at > $2;
	`

	var data []byte
	if err := s.DB.QueryRowContext(ctx, q, key, s.Now()).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, &domain.CacheError{Op: "get", Err: fmt.Errorf("query route_cache table: %w", err)}
	}

	var result domain.RouteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, &domain.CacheError{Op: "get", Err: fmt.Errorf("decode cached route: %w", err)}
	}

	return &result, true, nil
}

// Put upserts the serialized result, resetting the creation and expiry
// timestamps. Last write wins under concurrent identical writes.
func (s *SQLRouteCache) Put(ctx context.Context, key string, result *domain.RouteResult) error {
	if s.DB == nil {
		return &domain.CacheError{Op: "put", Err: errors.New("db is nil")}
	}

	if key == "" {
		return &domain.CacheError{Op: "put", Err: errors.New("key must not be empty")}
	}

	if result == nil {
		return &domain.CacheError{Op: "put", Err: errors.New("result must not be nil")}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return &domain.CacheError{Op: "put", Err: fmt.Errorf("encode route result: %w", err)}
	}

	now := s.Now()

	q := `
	INSERT INTO route_cache (route_key, route_data, created_at, expires_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (route_key) DO UPDATE
	SET route_data = EXCLUDED.route_data,
		created_at = EXCLUDED.created_at,
		expires_at = EXCLUDED.expires_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, key, data, now, now.Add(TTL)); err != nil {
		return &domain.CacheError{Op: "put", Err: fmt.Errorf("upsert route_cache table: %w", err)}
	}

	return nil
}

// SweepExpired deletes all entries past their expiry and reports how
// many were removed.
func (s *SQLRouteCache) SweepExpired(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "route.cache.SweepExpired")(&err)

	if s.DB == nil {
		return 0, &domain.CacheError{Op: "sweep", Err: errors.New("db is nil")}
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE expires_at <= $1;`, s.Now())
	if err != nil {
		return 0, &domain.CacheError{Op: "sweep", Err: fmt.Errorf("delete expired rows: %w", err)}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.CacheError{Op: "sweep", Err: fmt.Errorf("rows affected: %w", err)}
	}

	return int(n), nil
}
