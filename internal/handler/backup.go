package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/finjaanapp/finjaan/internal/backup"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

// BackupHandler exposes the admin view of the backup manager. A nil
// manager means backups are not configured on this install.
type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, backups *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, backups: backups, logger: logger}
}

type backupListEntry struct {
	model.BackupRecord
	Size string `json:"size"`
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	records, err := h.backups.ListRecent(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}

	entries := make([]backupListEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, backupListEntry{
			BackupRecord: rec,
			Size:         humanize.Bytes(uint64(rec.SizeBytes)),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": h.manager.Status(),
		"recent": entries,
	})
}

// Run kicks off an on-demand backup and returns immediately.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	// Detached from the request context: the upload outlives the response.
	go func() {
		if err := h.manager.Run(context.Background()); err != nil {
			h.logger.Error("manual backup failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
