package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/store"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

type ApplicationHandler struct {
	applicationStore *store.ApplicationStore
	opportunityStore *store.OpportunityStore
	engine           *workflow.Engine
	logger           *slog.Logger
}

func NewApplicationHandler(as *store.ApplicationStore, os *store.OpportunityStore, engine *workflow.Engine, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{applicationStore: as, opportunityStore: os, engine: engine, logger: logger}
}

type applyRequest struct {
	OpportunityID int64 `json:"opportunity_id"`
}

// Apply submits a pending application from the authenticated volunteer.
// Applications are only accepted while the opportunity is open.
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	opp, err := h.opportunityStore.GetByID(req.OpportunityID)
	if err != nil {
		h.logger.Error("get opportunity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get opportunity"})
		return
	}
	if opp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "opportunity not found"})
		return
	}
	if opp.Status != workflow.OpportunityOpen {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "opportunity is concluded"})
		return
	}

	volunteerID := auth.VolunteerID(r.Context())
	app, err := h.applicationStore.Create(volunteerID, req.OpportunityID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateApplication) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already applied to this opportunity"})
			return
		}
		h.logger.Error("create application", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create application"})
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// Mine lists the authenticated volunteer's own applications.
func (h *ApplicationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	volunteerID := auth.VolunteerID(r.Context())
	applications, err := h.applicationStore.ListByVolunteer(volunteerID)
	if err != nil {
		h.logger.Error("list applications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list applications"})
		return
	}
	if applications == nil {
		applications = []model.Application{}
	}
	writeJSON(w, http.StatusOK, applications)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	app, err := h.applicationStore.GetByID(id)
	if err != nil {
		h.logger.Error("get application", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get application"})
		return
	}
	if app == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "application not found"})
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus moves a pending application to accepted or rejected.
func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !workflow.ValidApplicationStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	app, err := h.engine.SetApplicationStatus(r.Context(), id, req.Status)
	if err != nil {
		writeWorkflowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Confirm records participation for a single accepted application and
// awards the opportunity's points.
func (h *ApplicationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	app, err := h.engine.ConfirmParticipation(r.Context(), id)
	if err != nil {
		writeWorkflowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
