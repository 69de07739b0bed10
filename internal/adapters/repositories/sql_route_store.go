package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
)

// Postgres-backed implementation of the RouteStore port.
type SQLRouteStore struct{ DB *sql.DB }

func NewSQLRouteStore(db *sql.DB) *SQLRouteStore {
	return &SQLRouteStore{DB: db}
}

// SaveRoute persists the route header and its stops in one transaction.
func (s *SQLRouteStore) SaveRoute(ctx context.Context, result *domain.RouteResult) (_ string, err error) {
	defer obs.Time(ctx, "routes.SaveRoute")(&err)

	if s.DB == nil {
		return "", errors.New("route store: DB is nil")
	}

	if result == nil {
		return "", errors.New("save route: result must not be nil")
	}

	if result.ID == "" {
		return "", errors.New("save route: result id must not be empty")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	routeQuery := `
	INSERT INTO routes (id, name, scheduled_date, origin, total_distance_meters, total_duration_seconds, status)
	VALUES ($1, $2, $3, $4, $5, $6, 'planned');
	`

	_, err = tx.ExecContext(
		ctx, routeQuery,
		result.ID, result.Name, result.ScheduledDate, result.Origin,
		result.TotalDistanceMeters, result.TotalDurationSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("save route: insert route %q: %w", result.ID, err)
	}

	stopQuery := `
	INSERT INTO route_stops (route_id, customer_id, customer_name, address, stop_order, estimated_arrival, travel_time_seconds, distance_meters)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	stmt, err := tx.PrepareContext(ctx, stopQuery)
	if err != nil {
		return "", fmt.Errorf("save route: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for _, stop := range result.Stops {
		_, err := stmt.ExecContext(
			ctx,
			result.ID, stop.CustomerID, stop.CustomerName, stop.Address,
			stop.Order, stop.EstimatedArrival, stop.TravelTimeSeconds, stop.DistanceMeters,
		)
		if err != nil {
			return "", fmt.Errorf("save route: insert stop order=%d: %w", stop.Order, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save route: commit tx: %w", err)
	}

	return result.ID, nil
}

// ListRoutes returns saved routes with stop counts, newest first.
func (s *SQLRouteStore) ListRoutes(ctx context.Context) (_ []*domain.RouteSummary, err error) {
	defer obs.Time(ctx, "routes.ListRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("route store: DB is nil")
	}

	q := `
	SELECT r.id, r.name, r.origin, COALESCE(r.scheduled_date, r.created_at),
		r.status, r.total_distance_meters, r.total_duration_seconds, r.created_at,
		COUNT(s.id)
	FROM routes r
	LEFT JOIN route_stops s ON s.route_id = r.id
	GROUP BY r.id
	ORDER BY COALESCE(r.scheduled_date, r.created_at) DESC, r.created_at DESC;
	`

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	summaries := make([]*domain.RouteSummary, 0, 32)
	for rows.Next() {
		sum := &domain.RouteSummary{}
		err := rows.Scan(
			&sum.ID, &sum.Name, &sum.Origin, &sum.ScheduledDate,
			&sum.Status, &sum.TotalDistanceMeters, &sum.TotalDurationSeconds, &sum.CreatedAt,
			&sum.StopCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return summaries, nil
}

// GetRouteStops returns the stops of a saved route in visit order.
func (s *SQLRouteStore) GetRouteStops(ctx context.Context, routeID string) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "routes.GetRouteStops")(&err)

	if s.DB == nil {
		return nil, errors.New("route store: DB is nil")
	}

	if routeID == "" {
		return nil, errors.New("get route stops: routeID must not be empty")
	}

	q := `
	SELECT customer_id, customer_name, address, stop_order,
		estimated_arrival, travel_time_seconds, distance_meters
	FROM route_stops
	WHERE route_id = $1
	ORDER BY stop_order;
	`

	rows, err := s.DB.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route stops: query route_stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 16)
	for rows.Next() {
		var stop domain.Stop
		err := rows.Scan(
			&stop.CustomerID, &stop.CustomerName, &stop.Address, &stop.Order,
			&stop.EstimatedArrival, &stop.TravelTimeSeconds, &stop.DistanceMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("get route stops: scan row: %w", err)
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get route stops: row iteration: %w", err)
	}

	return stops, nil
}
