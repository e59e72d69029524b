package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/zaboj/internal/inventory"
)

// StockHandler handles stock movement endpoints.
type StockHandler struct {
	Store *inventory.Store
}

type stockRequest struct {
	BoxBarcode  string `json:"boxBarcode"`
	ItemBarcode string `json:"itemBarcode"`
	Quantity    int    `json:"quantity"`
}

type moveStockRequest struct {
	FromBox     string `json:"fromBox"`
	ToBox       string `json:"toBox"`
	ItemBarcode string `json:"itemBarcode"`
	Quantity    int    `json:"quantity"`
}

type quantityResponse struct {
	BoxBarcode  string `json:"boxBarcode"`
	ItemBarcode string `json:"itemBarcode"`
	Quantity    int    `json:"quantity"`
}

// Add handles POST /api/stock/add.
func (h *StockHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BoxBarcode == "" || req.ItemBarcode == "" {
		jsonError(w, http.StatusBadRequest, "box and item barcodes required")
		return
	}
	if req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	h.Store.AddToBox(r.Context(), req.BoxBarcode, req.ItemBarcode, req.Quantity)
	jsonResponse(w, http.StatusOK, quantityResponse{
		BoxBarcode:  req.BoxBarcode,
		ItemBarcode: req.ItemBarcode,
		Quantity:    h.Store.Quantity(req.BoxBarcode, req.ItemBarcode),
	})
}

// Remove handles POST /api/stock/remove. Removing more than is present
// clamps to zero rather than erroring, matching how workers correct
// miscounts in the field.
func (h *StockHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BoxBarcode == "" || req.ItemBarcode == "" {
		jsonError(w, http.StatusBadRequest, "box and item barcodes required")
		return
	}
	if req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	h.Store.RemoveFromBox(r.Context(), req.BoxBarcode, req.ItemBarcode, req.Quantity)
	jsonResponse(w, http.StatusOK, quantityResponse{
		BoxBarcode:  req.BoxBarcode,
		ItemBarcode: req.ItemBarcode,
		Quantity:    h.Store.Quantity(req.BoxBarcode, req.ItemBarcode),
	})
}

// Move handles POST /api/stock/move.
func (h *StockHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveStockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FromBox == "" || req.ToBox == "" || req.ItemBarcode == "" {
		jsonError(w, http.StatusBadRequest, "source, destination and item barcodes required")
		return
	}

	err := h.Store.MoveBetweenBoxes(r.Context(), req.FromBox, req.ToBox, req.ItemBarcode, req.Quantity)
	switch {
	case errors.Is(err, inventory.ErrNonPositiveQuantity),
		errors.Is(err, inventory.ErrSameBox):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, inventory.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "move failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int{
		"sourceQuantity":      h.Store.Quantity(req.FromBox, req.ItemBarcode),
		"destinationQuantity": h.Store.Quantity(req.ToBox, req.ItemBarcode),
	})
}
