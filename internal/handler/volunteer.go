package handler

import (
	"log/slog"
	"net/http"

	"github.com/volunteerhub/volunteerhub/internal/ledger"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/store"
)

type VolunteerHandler struct {
	volunteerStore  *store.VolunteerStore
	redemptionStore *store.RedemptionStore
	ledgerStore     *ledger.Store
	logger          *slog.Logger
}

func NewVolunteerHandler(vs *store.VolunteerStore, rs *store.RedemptionStore, ls *ledger.Store, logger *slog.Logger) *VolunteerHandler {
	return &VolunteerHandler{volunteerStore: vs, redemptionStore: rs, ledgerStore: ls, logger: logger}
}

func (h *VolunteerHandler) List(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.volunteerStore.List()
	if err != nil {
		h.logger.Error("list volunteers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list volunteers"})
		return
	}
	if volunteers == nil {
		volunteers = []model.Volunteer{}
	}
	writeJSON(w, http.StatusOK, volunteers)
}

func (h *VolunteerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	v, err := h.volunteerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get volunteer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get volunteer"})
		return
	}
	if v == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "volunteer not found"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Ledger returns the volunteer's point history, newest first.
func (h *VolunteerHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	v, err := h.volunteerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get volunteer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get volunteer"})
		return
	}
	if v == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "volunteer not found"})
		return
	}

	entries, err := h.ledgerStore.Entries(id)
	if err != nil {
		h.logger.Error("list ledger entries", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list ledger entries"})
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"volunteer_id": id,
		"balance":      v.TotalPoints,
		"entries":      entries,
	})
}

// Redemptions returns the volunteer's redemption history.
func (h *VolunteerHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	redemptions, err := h.redemptionStore.ListByVolunteer(id)
	if err != nil {
		h.logger.Error("list redemptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list redemptions"})
		return
	}
	if redemptions == nil {
		redemptions = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}
