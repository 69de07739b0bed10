package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"field-route-service/internal/api/dto"
	"field-route-service/internal/domain"
	"field-route-service/internal/ports"
)

// Optimizer is the route optimization entry point the handler depends on.
type Optimizer interface {
	Optimize(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)
}

// RouteHandler exposes route optimization, routable-customer listing, and
// saved-route endpoints.
type RouteHandler struct {
	Optimizer     Optimizer
	CustomerStore ports.CustomerStore
	RouteStore    ports.RouteStore
}

// Optimize handles POST /routes/optimize: the sole entry point into the
// route optimization pipeline.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	result, err := h.Optimizer.Optimize(r.Context(), domain.RouteRequest{
		Origin:        req.Origin,
		CustomerIDs:   req.CustomerIDs,
		RouteName:     req.RouteName,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeRouteResponse{
		Success: true,
		Route:   toRouteResponse(result),
	})
}

// RoutableCustomers handles GET /routes/customers: customers with at
// least one address usable for route planning.
func (h *RouteHandler) RoutableCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := ports.CustomerFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	customers, err := h.CustomerStore.ListRoutable(r.Context(), filter)
	if err != nil {
		log.Printf("list routable customers failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListCustomersResponse{
		Customers: make([]dto.CustomerResponse, 0, len(customers)),
		Total:     len(customers),
	}
	for _, c := range customers {
		locations := make([]dto.LocationResponse, 0, len(c.Locations))
		for _, l := range c.Locations {
			locations = append(locations, dto.LocationResponse{
				ID:            l.ID,
				StreetAddress: l.StreetAddress,
				City:          l.City,
				State:         l.State,
				PostalCode:    l.PostalCode,
				Latitude:      l.Latitude,
				Longitude:     l.Longitude,
				IsPrimary:     l.IsPrimary,
				AccessNotes:   l.AccessNotes,
			})
		}
		res.Customers = append(res.Customers, dto.CustomerResponse{
			ID:        c.ID,
			Name:      c.Name,
			Locations: locations,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Routes handles /routes: GET lists saved routes, POST saves one.
func (h *RouteHandler) Routes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRoutes(w, r)
	case http.MethodPost:
		h.saveRoute(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// RouteStops handles GET /routes/{id}/stops: the stops of one saved
// route in visit order.
func (h *RouteHandler) RouteStops(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/routes/")
	routeID, ok := strings.CutSuffix(rest, "/stops")
	if !ok || routeID == "" || strings.Contains(routeID, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	stops, err := h.RouteStore.GetRouteStops(r.Context(), routeID)
	if err != nil {
		log.Printf("get route stops failed route_id=%s err=%v", routeID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(stops) == 0 {
		writeError(w, r, http.StatusNotFound, "route not found")
		return
	}

	res := dto.RouteStopsResponse{
		Success: true,
		RouteID: routeID,
		Stops:   make([]dto.StopResponse, 0, len(stops)),
	}
	for _, s := range stops {
		res.Stops = append(res.Stops, dto.StopResponse{
			Order:             s.Order,
			CustomerID:        s.CustomerID,
			CustomerName:      s.CustomerName,
			Address:           s.Address,
			EstimatedArrival:  s.EstimatedArrival,
			TravelTimeSeconds: s.TravelTimeSeconds,
			DistanceMeters:    s.DistanceMeters,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) listRoutes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.RouteStore.ListRoutes(r.Context())
	if err != nil {
		log.Printf("list routes failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRoutesResponse{
		Success: true,
		Routes:  make([]dto.RouteSummaryResponse, 0, len(summaries)),
	}
	for _, s := range summaries {
		res.Routes = append(res.Routes, dto.RouteSummaryResponse{
			ID:                   s.ID,
			Name:                 s.Name,
			Origin:               s.Origin,
			Date:                 s.ScheduledDate,
			Status:               s.Status,
			CustomerCount:        s.StopCount,
			TotalDistanceMeters:  s.TotalDistanceMeters,
			TotalDurationSeconds: s.TotalDurationSeconds,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) saveRoute(w http.ResponseWriter, r *http.Request) {
	var req dto.RouteResponse

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.ID == "" || req.Name == "" || req.Origin == "" {
		writeError(w, r, http.StatusBadRequest, "id, name, and origin are required")
		return
	}

	id, err := h.RouteStore.SaveRoute(r.Context(), fromRouteResponse(req))
	if err != nil {
		log.Printf("save route failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.SaveRouteResponse{Success: true, ID: id})
}

func toRouteResponse(result *domain.RouteResult) dto.RouteResponse {
	stops := make([]dto.StopResponse, 0, len(result.Stops))
	for _, s := range result.Stops {
		stops = append(stops, dto.StopResponse{
			Order:             s.Order,
			CustomerID:        s.CustomerID,
			CustomerName:      s.CustomerName,
			Address:           s.Address,
			LocationID:        s.LocationID,
			AccessNotes:       s.AccessNotes,
			Latitude:          s.Latitude,
			Longitude:         s.Longitude,
			EstimatedArrival:  s.EstimatedArrival,
			TravelTimeSeconds: s.TravelTimeSeconds,
			DistanceMeters:    s.DistanceMeters,
		})
	}

	res := dto.RouteResponse{
		ID:                   result.ID,
		Name:                 result.Name,
		Origin:               result.Origin,
		ScheduledDate:        result.ScheduledDate,
		TotalDistanceMeters:  result.TotalDistanceMeters,
		TotalDurationSeconds: result.TotalDurationSeconds,
		Stops:                stops,
		Polyline:             result.Polyline,
		OptimizedOrder:       result.OptimizedOrder,
	}

	if result.Bounds != nil {
		res.Bounds = &dto.BoundsResponse{
			Northeast: dto.LatLngResponse{Lat: result.Bounds.Northeast.Lat, Lng: result.Bounds.Northeast.Lng},
			Southwest: dto.LatLngResponse{Lat: result.Bounds.Southwest.Lat, Lng: result.Bounds.Southwest.Lng},
		}
	}

	return res
}

func fromRouteResponse(req dto.RouteResponse) *domain.RouteResult {
	stops := make([]domain.Stop, 0, len(req.Stops))
	for _, s := range req.Stops {
		stops = append(stops, domain.Stop{
			Order:             s.Order,
			CustomerID:        s.CustomerID,
			CustomerName:      s.CustomerName,
			Address:           s.Address,
			LocationID:        s.LocationID,
			AccessNotes:       s.AccessNotes,
			Latitude:          s.Latitude,
			Longitude:         s.Longitude,
			EstimatedArrival:  s.EstimatedArrival,
			TravelTimeSeconds: s.TravelTimeSeconds,
			DistanceMeters:    s.DistanceMeters,
		})
	}

	return &domain.RouteResult{
		ID:                   req.ID,
		Name:                 req.Name,
		Origin:               req.Origin,
		ScheduledDate:        req.ScheduledDate,
		Stops:                stops,
		TotalDistanceMeters:  req.TotalDistanceMeters,
		TotalDurationSeconds: req.TotalDurationSeconds,
		Polyline:             req.Polyline,
		OptimizedOrder:       req.OptimizedOrder,
	}
}
