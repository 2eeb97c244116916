// Package api provides HTTP handlers for the console API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/hms-console/internal/session"
	"github.com/ashureev/hms-console/internal/store"
	"github.com/ashureev/hms-console/internal/views"
)

// Handler provides common handler utilities.
type Handler struct {
	gate     *session.Gate
	resolver *session.Resolver
	registry *views.Registry
	journal  store.Repository
	logger   *slog.Logger
}

// NewHandler creates a new Handler with common dependencies. resolver may be
// nil, in which case the session cannot be refreshed.
func NewHandler(gate *session.Gate, resolver *session.Resolver, registry *views.Registry, journal store.Repository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gate:     gate,
		resolver: resolver,
		registry: registry,
		journal:  journal,
		logger:   logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Redirect writes the 401 body telling the frontend where to navigate.
func Redirect(w http.ResponseWriter, to string) {
	JSON(w, http.StatusUnauthorized, map[string]string{"redirect": to})
}
