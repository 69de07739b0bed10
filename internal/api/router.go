package api

import (
	"net/http"

	"field-route-service/internal/api/handlers"
	"field-route-service/internal/platform/metrics"
	"field-route-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	optimizer handlers.Optimizer,
	customers ports.CustomerStore,
	routes ports.RouteStore,
) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{
		Optimizer:     optimizer,
		CustomerStore: customers,
		RouteStore:    routes,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/routes/optimize", routeHandler.Optimize)
	mux.HandleFunc("/routes/customers", routeHandler.RoutableCustomers)
	mux.HandleFunc("/routes", routeHandler.Routes)
	mux.HandleFunc("/routes/", routeHandler.RouteStops)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
