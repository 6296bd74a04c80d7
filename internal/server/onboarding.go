package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/catalog"
	"github.com/choppr/choppr/internal/login"
	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/onboarding"
)

type organizationResponse struct {
	OrgID      string    `json:"org_id"`
	Name       string    `json:"name"`
	Country    *string   `json:"country"`
	SizeBucket *string   `json:"size_bucket"`
	ITRole     *string   `json:"it_role"`
	CreatedAt  time.Time `json:"created_at"`
}

func toOrganizationResponse(org *models.Organization) organizationResponse {
	return organizationResponse{
		OrgID:      org.OrgID.String(),
		Name:       org.Name,
		Country:    org.Country,
		SizeBucket: org.SizeBucket,
		ITRole:     org.ITRole,
		CreatedAt:  org.CreatedAt,
	}
}

type createOrganizationRequest struct {
	Name       string `json:"name"`
	Country    string `json:"country,omitempty"`
	SizeBucket string `json:"size_bucket,omitempty"`
	ITRole     string `json:"it_role,omitempty"`
}

// CreateOrganizationHandler handles POST /api/v1/orgs, step one of onboarding.
func (h *Handlers) CreateOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createOrganizationRequest
	if !readJSON(w, r, &req) {
		return
	}

	org, err := h.onboarding.CreateOrganization(r.Context(), session.UserID, onboarding.OrganizationParams{
		Name:       req.Name,
		Country:    req.Country,
		SizeBucket: req.SizeBucket,
		ITRole:     req.ITRole,
	})
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrInvalidOrgName), errors.Is(err, onboarding.ErrInvalidSizeBucket):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to create organization")
			writeError(w, http.StatusInternalServerError, "failed to create organization")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

type replaceFrameworksRequest struct {
	FrameworkIDs []string `json:"framework_ids"`
}

// ReplaceFrameworksHandler handles PUT /api/v1/orgs/{org_id}/frameworks,
// step two of onboarding. The submitted set replaces the previous one.
func (h *Handlers) ReplaceFrameworksHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orgID, err := uuid.Parse(r.PathValue("org_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	var req replaceFrameworksRequest
	if !readJSON(w, r, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.FrameworkIDs))
	for _, raw := range req.FrameworkIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid framework id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	if err := h.onboarding.ReplaceFrameworks(r.Context(), orgID, session.UserID, ids); err != nil {
		if errors.Is(err, onboarding.ErrNotMember) {
			writeError(w, http.StatusForbidden, "not a member of this organization")
			return
		}
		log.Error().Err(err).Msg("Failed to replace frameworks")
		writeError(w, http.StatusInternalServerError, "failed to save framework selection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(ids)})
}

type seedProcessesRequest struct {
	Keys []string `json:"keys"`
}

// SeedProcessesHandler handles POST /api/v1/orgs/{org_id}/processes,
// step three of onboarding: adopt starter processes onto the canvas.
func (h *Handlers) SeedProcessesHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	orgID, err := uuid.Parse(r.PathValue("org_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	var req seedProcessesRequest
	if !readJSON(w, r, &req) {
		return
	}

	seeded, err := h.onboarding.SeedProcesses(r.Context(), orgID, session.UserID, req.Keys)
	if err != nil {
		if errors.Is(err, onboarding.ErrNotMember) {
			writeError(w, http.StatusForbidden, "not a member of this organization")
			return
		}
		log.Error().Err(err).Msg("Failed to seed processes")
		writeError(w, http.StatusInternalServerError, "failed to adopt processes")
		return
	}

	out := make([]processResponse, 0, len(seeded))
	for _, p := range seeded {
		out = append(out, toProcessResponse(p))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"processes": out})
}

type frameworkResponse struct {
	FrameworkID string `json:"framework_id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
}

// ListFrameworksHandler handles GET /api/v1/frameworks.
func (h *Handlers) ListFrameworksHandler(w http.ResponseWriter, r *http.Request) {
	frameworks, err := h.onboarding.ListFrameworks(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list frameworks")
		writeError(w, http.StatusInternalServerError, "failed to list frameworks")
		return
	}

	out := make([]frameworkResponse, 0, len(frameworks))
	for _, f := range frameworks {
		out = append(out, frameworkResponse{
			FrameworkID: f.FrameworkID.String(),
			Code:        f.Code,
			Label:       f.Label,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": out})
}

type starterProcessResponse struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ValueStream string `json:"value_stream"`
}

// ListCatalogHandler handles GET /api/v1/catalog/processes, the starter
// processes offered in step three.
func (h *Handlers) ListCatalogHandler(w http.ResponseWriter, r *http.Request) {
	processes := catalog.Processes()
	out := make([]starterProcessResponse, 0, len(processes))
	for _, p := range processes {
		out = append(out, starterProcessResponse{
			Key:         p.Key,
			Name:        p.Name,
			ValueStream: p.ValueStream,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"processes": out})
}
