package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/store"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

type OpportunityHandler struct {
	opportunityStore *store.OpportunityStore
	applicationStore *store.ApplicationStore
	engine           *workflow.Engine
	logger           *slog.Logger
}

func NewOpportunityHandler(os *store.OpportunityStore, as *store.ApplicationStore, engine *workflow.Engine, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{opportunityStore: os, applicationStore: as, engine: engine, logger: logger}
}

type opportunityRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	PointsReward int    `json:"points_reward"`
}

// Create opens a new opportunity owned by the authenticated promoter.
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req opportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.PointsReward <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "points_reward must be > 0"})
		return
	}

	promoterID := auth.PromoterID(r.Context())
	opp, err := h.opportunityStore.Create(promoterID, req.Title, req.Description, req.PointsReward)
	if err != nil {
		h.logger.Error("create opportunity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create opportunity"})
		return
	}
	writeJSON(w, http.StatusCreated, opp)
}

func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.opportunityStore.List()
	if err != nil {
		h.logger.Error("list opportunities", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list opportunities"})
		return
	}
	if opportunities == nil {
		opportunities = []model.Opportunity{}
	}
	writeJSON(w, http.StatusOK, opportunities)
}

func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	opp, err := h.opportunityStore.GetByID(id)
	if err != nil {
		h.logger.Error("get opportunity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get opportunity"})
		return
	}
	if opp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "opportunity not found"})
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

// Applications lists the applications submitted to an opportunity.
func (h *OpportunityHandler) Applications(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	applications, err := h.applicationStore.ListByOpportunity(id)
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

type concludeRequest struct {
	ApplicationIDs []int64 `json:"application_ids"`
}

// Conclude closes the opportunity and awards points to the listed
// applications through the workflow engine.
func (h *OpportunityHandler) Conclude(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req concludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	promoterID := auth.PromoterID(r.Context())
	result, err := h.engine.ConcludeOpportunity(r.Context(), id, promoterID, req.ApplicationIDs)
	if err != nil {
		writeWorkflowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
