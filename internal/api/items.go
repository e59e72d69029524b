package api

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/zaboj/internal/imaging"
	"github.com/erazemk/zaboj/internal/inventory"
	"github.com/erazemk/zaboj/internal/model"
	"github.com/erazemk/zaboj/internal/store"
)

// maxUploadSize limits item photo uploads (pre-normalization).
const maxUploadSize = 10 << 20

// ItemsHandler handles item registry endpoints.
type ItemsHandler struct {
	DB    *sql.DB
	Store *inventory.Store
}

type upsertItemRequest struct {
	Name              string      `json:"name"`
	UnitPriceCents    int         `json:"unitPriceCents"`
	ExpiresOn         *model.Date `json:"expiresOn,omitempty"`
	ExpiryWarningDays *int        `json:"expiryWarningDays,omitempty"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.Items())
}

// Get handles GET /api/items/{barcode}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Store.FindItem(r.PathValue("barcode"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Upsert handles PUT /api/items/{barcode}. The item is created or fully
// overwritten.
func (h *ItemsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(r.PathValue("barcode"))
	if barcode == "" {
		jsonError(w, http.StatusBadRequest, "barcode required")
		return
	}

	var req upsertItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UnitPriceCents < 0 {
		jsonError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}
	if req.ExpiryWarningDays != nil && *req.ExpiryWarningDays < 0 {
		jsonError(w, http.StatusBadRequest, "warning days cannot be negative")
		return
	}

	item := h.Store.UpsertItem(r.Context(), barcode, req.Name, req.UnitPriceCents, req.ExpiresOn, req.ExpiryWarningDays)
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{barcode}/image. The body is raw
// image data; it is sniffed, downscaled and re-encoded before storage.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	barcode := r.PathValue("barcode")
	if _, ok := h.Store.FindItem(barcode); !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	data, mime, err := imaging.Normalize(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, barcode, data, mime); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	slog.Info("item image updated", "item", barcode, "bytes", len(data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
}

// GetImage handles GET /api/items/{barcode}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("barcode"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to load image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image for item")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("writing image response failed", "error", err)
	}
}

// DeleteImage handles DELETE /api/items/{barcode}/image.
func (h *ItemsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteItemImage(r.Context(), h.DB, r.PathValue("barcode")); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete image")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image deleted"})
}
