package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaboj/internal/csvio"
	"github.com/erazemk/zaboj/internal/inventory"
)

// maxBackupSize limits uploaded backup files.
const maxBackupSize = 50 << 20

// BackupHandler handles snapshot export, import, restore and wipe.
type BackupHandler struct {
	Store *inventory.Store
}

// ExportJSON handles GET /api/backup/export.json, serving the snapshot
// in the on-disk persistence format.
func (h *BackupHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	encoded, err := h.Store.ExportSnapshot().Encode()
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to encode snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, encoded); err != nil {
		slog.Error("writing snapshot export failed", "error", err)
	}
}

// ExportCSV handles GET /api/backup/export.csv.
func (h *BackupHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := csvio.Export(h.Store.ExportSnapshot())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to export CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("writing CSV export failed", "error", err)
	}
}

// ImportCSV handles POST /api/backup/import.csv. The whole file is
// parsed before any state changes; a malformed file leaves the store
// untouched.
func (h *BackupHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	defer r.Body.Close()

	snap, err := csvio.Parse(string(body))
	if err != nil {
		var missing *csvio.MissingColumnError
		if errors.As(err, &missing) {
			jsonError(w, http.StatusBadRequest, missing.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.ReplaceAll(r.Context(), snap); err != nil {
		jsonError(w, http.StatusInternalServerError, "import succeeded but persisting failed")
		return
	}

	slog.Info("inventory imported from CSV",
		"boxes", len(snap.Boxes), "items", len(snap.Items))
	jsonResponse(w, http.StatusOK, map[string]int{
		"boxes": len(snap.Boxes),
		"items": len(snap.Items),
	})
}

// RestoreJSON handles POST /api/backup/restore.json. The body must be a
// snapshot in the persistence format; corrupt snapshots are rejected
// without touching state.
func (h *BackupHandler) RestoreJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	defer r.Body.Close()

	if err := h.Store.RestoreJSON(r.Context(), string(body)); err != nil {
		if errors.Is(err, inventory.ErrCorruptSnapshot) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "restore failed")
		return
	}

	slog.Info("inventory restored from JSON snapshot")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "snapshot restored"})
}

// Wipe handles POST /api/backup/wipe. Irreversible.
func (h *BackupHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.WipeAll(r.Context()); err != nil {
		jsonError(w, http.StatusInternalServerError, "wipe failed")
		return
	}

	claims := GetClaims(r.Context())
	if claims != nil {
		slog.Warn("inventory wiped", "user", claims.Username)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "inventory wiped"})
}
