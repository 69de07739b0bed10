package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Initialize the Postgres schema: customers, their service locations,
// saved routes with stops, and the route optimization cache.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCustomersQuery := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	`

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS customer_locations (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		street_address TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		access_notes TEXT
	);
	`

	createLocationsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_customer_locations_customer
	ON customer_locations(customer_id);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		scheduled_date TIMESTAMPTZ,
		origin TEXT NOT NULL,
		total_distance_meters INTEGER NOT NULL DEFAULT 0,
		total_duration_seconds INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'planned',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`

	createRouteStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		id BIGSERIAL PRIMARY KEY,
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		customer_id TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		address TEXT NOT NULL,
		stop_order INTEGER NOT NULL,
		estimated_arrival TIMESTAMPTZ,
		travel_time_seconds INTEGER NOT NULL DEFAULT 0,
		distance_meters INTEGER NOT NULL DEFAULT 0
	);
	`

	createRouteStopsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_stops_route
	ON route_stops(route_id);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		route_key TEXT PRIMARY KEY,
		route_data JSONB NOT NULL,
		distance_matrix JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);
	`

	createRouteCacheIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_cache_expires
	ON route_cache(expires_at);
	`

	statements := []string{
		createCustomersQuery,
		createLocationsQuery,
		createLocationsIndexQuery,
		createRoutesQuery,
		createRouteStopsQuery,
		createRouteStopsIndexQuery,
		createRouteCacheQuery,
		createRouteCacheIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type LocationSeed struct {
	ID            string   `json:"id"`
	StreetAddress string   `json:"street_address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	IsPrimary     bool     `json:"is_primary"`
	AccessNotes   string   `json:"access_notes"`
}

type CustomerSeed struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Locations []LocationSeed `json:"locations"`
}

// Populate the database with demo customers from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed customers: read %q: %w", jsonPath, err)
	}

	var data []CustomerSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed customers: parse json: %w", err)
	}

	for i, c := range data {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed customers: item at index %d: name cannot be empty", i+1)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed customers: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	customerQuery := `
	INSERT INTO customers (id, name)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name;
	`

	locationQuery := `
	INSERT INTO customer_locations (
		id, customer_id, street_address, city, state, postal_code,
		latitude, longitude, is_primary, access_notes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE
	SET street_address = EXCLUDED.street_address,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		postal_code = EXCLUDED.postal_code,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		is_primary = EXCLUDED.is_primary,
		access_notes = EXCLUDED.access_notes;
	`

	for _, c := range data {
		customerID := c.ID
		if customerID == "" {
			customerID = uuid.NewString()
		}

		if _, err := tx.Exec(customerQuery, customerID, strings.TrimSpace(c.Name)); err != nil {
			return fmt.Errorf("seed customers: insert customer %q: %w", c.Name, err)
		}

		for j, l := range c.Locations {
			if strings.TrimSpace(l.StreetAddress) == "" {
				return fmt.Errorf("seed customers: customer %q location %d: street_address cannot be empty", c.Name, j+1)
			}

			locationID := l.ID
			if locationID == "" {
				locationID = uuid.NewString()
			}

			_, err := tx.Exec(
				locationQuery,
				locationID, customerID, strings.TrimSpace(l.StreetAddress), l.City, l.State,
				l.PostalCode, l.Latitude, l.Longitude, l.IsPrimary, l.AccessNotes,
			)
			if err != nil {
				return fmt.Errorf("seed customers: insert location for %q: %w", c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed customers: commit tx: %w", err)
	}

	return nil
}
