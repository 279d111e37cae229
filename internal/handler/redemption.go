package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

type RedemptionHandler struct {
	engine *workflow.Engine
	logger *slog.Logger
}

func NewRedemptionHandler(engine *workflow.Engine, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{engine: engine, logger: logger}
}

type redeemRequest struct {
	BenefitID int64 `json:"benefit_id"`
}

// Redeem exchanges the authenticated volunteer's points for a benefit.
// The debit and the redemption record are written atomically, so a
// failed redemption never touches the balance.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	volunteerID := auth.VolunteerID(r.Context())
	result, err := h.engine.RedeemPoints(r.Context(), volunteerID, req.BenefitID)
	if err != nil {
		writeWorkflowError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
