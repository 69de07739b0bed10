package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"field-route-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses:
// validation errors are the client's to fix, provider errors mean the
// upstream is unavailable, everything else is internal.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, r, http.StatusBadRequest, ve.Msg)
		return
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		log.Printf("mapping provider failed: method=%s path=%s status=%s err=%v", r.Method, r.URL.Path, pe.Status, err)
		writeError(w, r, http.StatusBadGateway, "route provider unavailable: "+pe.Status)
		return
	}

	log.Printf("request failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}
