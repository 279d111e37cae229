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

type BenefitHandler struct {
	benefitStore *store.BenefitStore
	engine       *workflow.Engine
	logger       *slog.Logger
}

func NewBenefitHandler(bs *store.BenefitStore, engine *workflow.Engine, logger *slog.Logger) *BenefitHandler {
	return &BenefitHandler{benefitStore: bs, engine: engine, logger: logger}
}

type benefitRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	PointsRequired int    `json:"points_required"`
}

func (req *benefitRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.PointsRequired <= 0 {
		return "points_required must be > 0"
	}
	return ""
}

func (h *BenefitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req benefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	benefit, err := h.benefitStore.Create(req.Title, req.Description, req.Category, req.PointsRequired, true)
	if err != nil {
		h.logger.Error("create benefit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create benefit"})
		return
	}
	writeJSON(w, http.StatusCreated, benefit)
}

// List returns active benefits. Promoters see the full catalog,
// inactive entries included.
func (h *BenefitHandler) List(w http.ResponseWriter, r *http.Request) {
	var benefits []model.Benefit
	var err error
	if auth.IsPromoter(r.Context()) {
		benefits, err = h.benefitStore.List()
	} else {
		benefits, err = h.benefitStore.ListActive()
	}
	if err != nil {
		h.logger.Error("list benefits", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list benefits"})
		return
	}
	if benefits == nil {
		benefits = []model.Benefit{}
	}
	writeJSON(w, http.StatusOK, benefits)
}

func (h *BenefitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	benefit, err := h.benefitStore.GetByID(id)
	if err != nil {
		h.logger.Error("get benefit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get benefit"})
		return
	}
	if benefit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "benefit not found"})
		return
	}
	writeJSON(w, http.StatusOK, benefit)
}

func (h *BenefitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req benefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	benefit, err := h.benefitStore.Update(id, req.Title, req.Description, req.Category, req.PointsRequired)
	if err != nil {
		h.logger.Error("update benefit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update benefit"})
		return
	}
	if benefit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "benefit not found"})
		return
	}
	writeJSON(w, http.StatusOK, benefit)
}

func (h *BenefitHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *BenefitHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *BenefitHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	benefit, err := h.benefitStore.SetActive(id, active)
	if err != nil {
		h.logger.Error("set benefit active", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update benefit"})
		return
	}
	if benefit == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "benefit not found"})
		return
	}
	writeJSON(w, http.StatusOK, benefit)
}

// Affordable lists active benefits the authenticated volunteer can
// currently redeem, cheapest first.
func (h *BenefitHandler) Affordable(w http.ResponseWriter, r *http.Request) {
	volunteerID := auth.VolunteerID(r.Context())
	benefits, err := h.engine.ListAffordable(r.Context(), volunteerID)
	if err != nil {
		writeWorkflowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, benefits)
}
