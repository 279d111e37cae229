package handler

import (
	"log/slog"
	"net/http"

	"github.com/volunteerhub/volunteerhub/internal/backup"
	"github.com/volunteerhub/volunteerhub/internal/model"
	"github.com/volunteerhub/volunteerhub/internal/store"
)

type BackupHandler struct {
	manager     *backup.Manager
	backupStore *store.BackupStore
	logger      *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, backupStore: bs, logger: logger}
}

// Status reports the backup schedule plus the recorded snapshots.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	records, err := h.backupStore.List()
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if records == nil {
		records = []model.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"status":  h.manager.Status(),
		"backups": records,
	})
}

// Run triggers an immediate backup outside the schedule.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "backups are not configured"})
		return
	}
	if err := h.manager.RunOnce(r.Context()); err != nil {
		h.logger.Error("run backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
