// Package server implements the JSON API the canvas editor and onboarding
// wizard talk to. All handlers expect to run behind the login middleware,
// which puts the caller's session in the request context.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/onboarding"
	"github.com/choppr/choppr/internal/store"
)

// Handlers bundles the API handlers and their dependencies.
type Handlers struct {
	onboarding *onboarding.Service
	orgs       store.OrganizationStore
	frameworks store.FrameworkStore
	canvas     store.CanvasStore
}

// NewHandlers creates the API handler set.
func NewHandlers(svc *onboarding.Service, orgs store.OrganizationStore, frameworks store.FrameworkStore, canvasStore store.CanvasStore) *Handlers {
	return &Handlers{
		onboarding: svc,
		orgs:       orgs,
		frameworks: frameworks,
		canvas:     canvasStore,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
