package server

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/canvas"
	"github.com/choppr/choppr/internal/login"
	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
	"github.com/choppr/choppr/internal/telemetry"
)

type processResponse struct {
	ProcessID   string `json:"process_id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	ValueStream string `json:"value_stream"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
}

func toProcessResponse(p *models.CanvasProcess) processResponse {
	return processResponse{
		ProcessID:   p.ProcessID.String(),
		Key:         p.Key,
		Name:        p.Name,
		ValueStream: p.ValueStream,
		X:           p.X,
		Y:           p.Y,
	}
}

type canvasResponse struct {
	OrgID string        `json:"org_id"`
	Nodes []canvas.Node `json:"nodes"`
	Edges []canvas.Edge `json:"edges"`
}

// CanvasHandler handles GET /api/v1/canvas. The organization is resolved from
// the caller's membership; a user with no membership gets a 404 so the client
// can route them back into onboarding.
func (h *Handlers) CanvasHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	member, err := h.orgs.MembershipForUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			writeError(w, http.StatusNotFound, "no organization")
			return
		}
		log.Error().Err(err).Msg("Failed to resolve membership")
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}

	processes, err := h.canvas.ListProcesses(r.Context(), member.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list processes")
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}

	relationships, err := h.canvas.ListRelationships(r.Context(), member.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list relationships")
		writeError(w, http.StatusInternalServerError, "failed to load canvas")
		return
	}

	telemetry.GetMetrics().CanvasLoadDuration.Record(r.Context(), float64(time.Since(start).Milliseconds()))

	writeJSON(w, http.StatusOK, canvasResponse{
		OrgID: member.OrgID.String(),
		Nodes: canvas.Nodes(processes),
		Edges: canvas.Edges(relationships),
	})
}

type updatePositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdatePositionHandler handles PATCH /api/v1/processes/{process_id}/position.
// Drag deltas arrive as floats; coordinates are rounded to whole pixels before
// persisting, and the stored row is returned so the client renders what the
// server kept.
func (h *Handlers) UpdatePositionHandler(w http.ResponseWriter, r *http.Request) {
	member, processID, ok := h.resolveProcessRequest(w, r)
	if !ok {
		return
	}

	var req updatePositionRequest
	if !readJSON(w, r, &req) {
		return
	}

	x := int(math.Round(req.X))
	y := int(math.Round(req.Y))

	updated, err := h.canvas.UpdateProcessPosition(r.Context(), member.OrgID, processID, x, y)
	if err != nil {
		if errors.Is(err, store.ErrProcessNotFound) {
			writeError(w, http.StatusNotFound, "process not found")
			return
		}
		log.Error().Err(err).Msg("Failed to update process position")
		writeError(w, http.StatusInternalServerError, "failed to move process")
		return
	}

	telemetry.GetMetrics().ProcessMovesTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, toProcessResponse(updated))
}

type updateProcessRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ValueStream string `json:"value_stream"`
}

// UpdateProcessHandler handles PATCH /api/v1/processes/{process_id}, editing
// a process's key, name and value stream.
func (h *Handlers) UpdateProcessHandler(w http.ResponseWriter, r *http.Request) {
	member, processID, ok := h.resolveProcessRequest(w, r)
	if !ok {
		return
	}

	var req updateProcessRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}

	updated, err := h.canvas.UpdateProcessDetails(r.Context(), member.OrgID, processID, req.Key, req.Name, req.ValueStream)
	if err != nil {
		if errors.Is(err, store.ErrProcessNotFound) {
			writeError(w, http.StatusNotFound, "process not found")
			return
		}
		log.Error().Err(err).Msg("Failed to update process")
		writeError(w, http.StatusInternalServerError, "failed to update process")
		return
	}

	telemetry.GetMetrics().ProcessEditsTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, toProcessResponse(updated))
}

type createRelationshipRequest struct {
	FromProcess string  `json:"from_process"`
	ToProcess   string  `json:"to_process"`
	Label       *string `json:"label,omitempty"`
}

type relationshipResponse struct {
	RelationshipID string  `json:"relationship_id"`
	FromProcess    string  `json:"from_process"`
	ToProcess      string  `json:"to_process"`
	Label          *string `json:"label"`
}

// CreateRelationshipHandler handles POST /api/v1/relationships, drawing a
// directed edge between two of the caller's processes. The created row is
// returned so the client replaces its provisional edge with the stored one.
func (h *Handlers) CreateRelationshipHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	member, err := h.orgs.MembershipForUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			writeError(w, http.StatusNotFound, "no organization")
			return
		}
		log.Error().Err(err).Msg("Failed to resolve membership")
		writeError(w, http.StatusInternalServerError, "failed to create relationship")
		return
	}

	var req createRelationshipRequest
	if !readJSON(w, r, &req) {
		return
	}

	from, err := uuid.Parse(req.FromProcess)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from_process id")
		return
	}
	to, err := uuid.Parse(req.ToProcess)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to_process id")
		return
	}

	rel := &models.ProcessRelationship{
		RelationshipID: uuid.Must(uuid.NewV7()),
		OrgID:          member.OrgID,
		FromProcess:    from,
		ToProcess:      to,
		Label:          req.Label,
		CreatedAt:      time.Now(),
	}

	if err := h.canvas.CreateRelationship(r.Context(), rel); err != nil {
		if errors.Is(err, store.ErrProcessNotFound) {
			writeError(w, http.StatusNotFound, "process not found")
			return
		}
		log.Error().Err(err).Msg("Failed to create relationship")
		writeError(w, http.StatusInternalServerError, "failed to create relationship")
		return
	}

	telemetry.GetMetrics().RelationshipsCreated.Add(r.Context(), 1)
	writeJSON(w, http.StatusCreated, relationshipResponse{
		RelationshipID: rel.RelationshipID.String(),
		FromProcess:    rel.FromProcess.String(),
		ToProcess:      rel.ToProcess.String(),
		Label:          rel.Label,
	})
}

// resolveProcessRequest resolves the caller's membership and the process ID
// path parameter shared by the process mutation handlers.
func (h *Handlers) resolveProcessRequest(w http.ResponseWriter, r *http.Request) (*models.Membership, uuid.UUID, bool) {
	session, ok := login.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, uuid.Nil, false
	}

	member, err := h.orgs.MembershipForUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			writeError(w, http.StatusNotFound, "no organization")
			return nil, uuid.Nil, false
		}
		log.Error().Err(err).Msg("Failed to resolve membership")
		writeError(w, http.StatusInternalServerError, "failed to resolve organization")
		return nil, uuid.Nil, false
	}

	processID, err := uuid.Parse(r.PathValue("process_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid process id")
		return nil, uuid.Nil, false
	}

	return member, processID, true
}
