package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
)

const defaultListLimit = 100

// Postgres-backed implementation of the CustomerStore port.
type SQLCustomerStore struct{ DB *sql.DB }

func NewSQLCustomerStore(db *sql.DB) *SQLCustomerStore {
	return &SQLCustomerStore{DB: db}
}

// GetCustomerByID returns the customer and all of their locations, or
// (nil, nil) when no such customer exists.
func (s *SQLCustomerStore) GetCustomerByID(ctx context.Context, id string) (_ *domain.Customer, err error) {
	defer obs.Time(ctx, "customers.GetCustomerByID")(&err)

	if s.DB == nil {
		return nil, errors.New("customer store: DB is nil")
	}

	if id == "" {
		return nil, errors.New("get customer: id must not be empty")
	}

	customer := &domain.Customer{}
	q := `SELECT id, name FROM customers WHERE id = $1;`
	if err := s.DB.QueryRowContext(ctx, q, id).Scan(&customer.ID, &customer.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: query customers table: %w", err)
	}

	locations, err := s.loadLocations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer %q: %w", id, err)
	}
	customer.Locations = locations

	return customer, nil
}

func (s *SQLCustomerStore) loadLocations(ctx context.Context, customerID string) ([]domain.ServiceLocation, error) {
	q := `
	SELECT id, street_address, city, state, postal_code,
		latitude, longitude, is_primary, COALESCE(access_notes, '')
	FROM customer_locations
	WHERE customer_id = $1
	ORDER BY is_primary DESC, id;
	`

	rows, err := s.DB.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer_locations table: %w", err)
	}
	defer rows.Close()

	locations := make([]domain.ServiceLocation, 0, 4)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return locations, nil
}

func scanLocation(rows *sql.Rows) (domain.ServiceLocation, error) {
	var loc domain.ServiceLocation
	var lat, lng sql.NullFloat64

	err := rows.Scan(
		&loc.ID, &loc.StreetAddress, &loc.City, &loc.State, &loc.PostalCode,
		&lat, &lng, &loc.IsPrimary, &loc.AccessNotes,
	)
	if err != nil {
		return domain.ServiceLocation{}, fmt.Errorf("scan location row: %w", err)
	}

	if lat.Valid {
		v := lat.Float64
		loc.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		loc.Longitude = &v
	}

	return loc, nil
}

// ListRoutable returns customers having at least one location with a
// street address and coordinates, with all their locations attached.
func (s *SQLCustomerStore) ListRoutable(ctx context.Context, filter ports.CustomerFilter) (_ []*domain.Customer, err error) {
	defer obs.Time(ctx, "customers.ListRoutable")(&err)

	if s.DB == nil {
		return nil, errors.New("customer store: DB is nil")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := `
	SELECT c.id, c.name,
		l.id, l.street_address, l.city, l.state, l.postal_code,
		l.latitude, l.longitude, l.is_primary, COALESCE(l.access_notes, '')
	FROM customers c
	JOIN customer_locations l ON l.customer_id = c.id
	WHERE c.id IN (
		SELECT c2.id
		FROM customers c2
		WHERE ($1 = '' OR c2.name ILIKE '%' || $1 || '%')
			AND EXISTS (
				SELECT 1 FROM customer_locations l2
				WHERE l2.customer_id = c2.id
					AND l2.street_address <> ''
					AND l2.latitude IS NOT NULL
					AND l2.longitude IS NOT NULL
			)
		ORDER BY c2.name, c2.id
		LIMIT $2
	)
	ORDER BY c.name, c.id, l.is_primary DESC, l.id;
	`

	rows, err := s.DB.QueryContext(ctx, q, filter.Search, limit)
	if err != nil {
		return nil, fmt.Errorf("list routable customers: query: %w", err)
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0, 32)
	byID := make(map[string]*domain.Customer)

	for rows.Next() {
		var id, name string
		var loc domain.ServiceLocation
		var lat, lng sql.NullFloat64

		err := rows.Scan(
			&id, &name,
			&loc.ID, &loc.StreetAddress, &loc.City, &loc.State, &loc.PostalCode,
			&lat, &lng, &loc.IsPrimary, &loc.AccessNotes,
		)
		if err != nil {
			return nil, fmt.Errorf("list routable customers: scan row: %w", err)
		}

		if lat.Valid {
			v := lat.Float64
			loc.Latitude = &v
		}
		if lng.Valid {
			v := lng.Float64
			loc.Longitude = &v
		}

		customer, ok := byID[id]
		if !ok {
			customer = &domain.Customer{ID: id, Name: name}
			byID[id] = customer
			customers = append(customers, customer)
		}
		customer.Locations = append(customer.Locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routable customers: row iteration: %w", err)
	}

	return customers, nil
}
