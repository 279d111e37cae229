package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeWorkflowError maps engine errors onto HTTP statuses: missing entities
// are 404, every expected conflict-class outcome is 409, and anything else is
// an infrastructure fault reported as 500.
func writeWorkflowError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAlreadyConfirmed),
		errors.Is(err, workflow.ErrAlreadyConcluded),
		errors.Is(err, workflow.ErrOwnershipViolation),
		errors.Is(err, workflow.ErrBenefitInactive),
		errors.Is(err, workflow.ErrInsufficientPoints):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		logger.Error("workflow operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
