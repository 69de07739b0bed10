package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"field-route-service/internal/adapters/cache"
	"field-route-service/internal/adapters/mapping"
	"field-route-service/internal/adapters/repositories"
	"field-route-service/internal/api"
	"field-route-service/internal/config"
	"field-route-service/internal/platform/db"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/ports"
	"field-route-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, Google Directions) behind
// ports and starts the HTTP server plus the cache expiry sweeper.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	port := config.Get("PORT", "8080")

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema on startup; seed demo data only when asked.
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(err)
	}
	if seedPath := os.Getenv("SEED_PATH"); seedPath != "" {
		if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
			log.Fatal(err)
		}
	}

	routeCache, err := newRouteCache(conn)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := newRouteProvider()
	if err != nil {
		log.Fatal(err)
	}

	customers := repositories.NewSQLCustomerStore(conn)
	routeStore := repositories.NewSQLRouteStore(conn)
	optimizer := services.NewRouteOptimizer(customers, provider, routeCache)

	metrics.RegisterDefault()
	router := api.NewRouter(optimizer, customers, routeStore)

	sweepInterval := config.GetDuration("CACHE_SWEEP_INTERVAL", time.Hour)
	go sweepLoop(routeCache, sweepInterval)

	// Timeouts are tuned for cold-cache route optimization (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// newRouteCache selects the cache backend: Redis when REDIS_URL is set,
// otherwise the route_cache table in Postgres.
func newRouteCache(conn *sql.DB) (ports.RouteCache, error) {
	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if redisURL == "" {
		log.Println("route cache backend=postgres")
		return cache.NewSQLRouteCache(conn), nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("verify redis connection: %w", err)
	}

	log.Println("route cache backend=redis")
	return cache.NewRedisRouteCache(client), nil
}

func sweepLoop(routeCache ports.RouteCache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := routeCache.SweepExpired(ctx)
		cancel()

		if err != nil {
			log.Printf("route cache sweep failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("route cache sweep removed=%d", n)
		}
	}
}

// newRouteProvider picks the mapping provider: Google Directions when an
// API key is configured, otherwise deterministic static estimates so the
// pipeline works without credentials.
func newRouteProvider() (ports.RouteProvider, error) {
	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY"))
	if apiKey == "" {
		log.Println("GOOGLE_MAPS_API_KEY not configured, using static route estimates")
		stopInterval := config.GetDuration("FALLBACK_STOP_INTERVAL", 15*time.Minute)
		stopMeters := config.GetInt("FALLBACK_STOP_METERS", 5000)
		return mapping.NewStaticEstimator(stopInterval, stopMeters), nil
	}

	return mapping.NewGoogleProvider(apiKey)
}
