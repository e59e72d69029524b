package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/zaboj/internal/inventory"
	"github.com/erazemk/zaboj/internal/model"
)

// BoxesHandler handles box endpoints.
type BoxesHandler struct {
	Store *inventory.Store
}

type createBoxRequest struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Van     string `json:"van"`
}

type renameBoxRequest struct {
	Name string `json:"name"`
}

type moveBoxRequest struct {
	Van string `json:"van"`
}

type boxResponse struct {
	model.Box
	Contents []model.StockLine `json:"contents"`
}

// List handles GET /api/boxes. An optional ?van= query filters by van.
func (h *BoxesHandler) List(w http.ResponseWriter, r *http.Request) {
	boxes := h.Store.Boxes()
	if van := r.URL.Query().Get("van"); van != "" {
		filtered := boxes[:0]
		for _, b := range boxes {
			if b.Van == van {
				filtered = append(filtered, b)
			}
		}
		boxes = filtered
	}
	jsonResponse(w, http.StatusOK, boxes)
}

// Create handles POST /api/boxes.
func (h *BoxesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Barcode == "" {
		jsonError(w, http.StatusBadRequest, "barcode required")
		return
	}

	if box, exists := h.Store.FindBox(req.Barcode); exists {
		// Scanners re-post boxes they have already seen; report the
		// existing state instead of erroring.
		jsonResponse(w, http.StatusOK, box)
		return
	}

	h.Store.CreateBox(r.Context(), req.Barcode, req.Name, req.Van)
	box, _ := h.Store.FindBox(req.Barcode)
	jsonResponse(w, http.StatusCreated, box)
}

// Get handles GET /api/boxes/{barcode}, returning the box with its
// contents.
func (h *BoxesHandler) Get(w http.ResponseWriter, r *http.Request) {
	barcode := r.PathValue("barcode")
	box, ok := h.Store.FindBox(barcode)
	if !ok {
		jsonError(w, http.StatusNotFound, "box not found")
		return
	}
	jsonResponse(w, http.StatusOK, boxResponse{
		Box:      box,
		Contents: h.Store.Contents(barcode),
	})
}

// Rename handles PUT /api/boxes/{barcode}/name.
func (h *BoxesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	barcode := r.PathValue("barcode")
	if _, ok := h.Store.FindBox(barcode); !ok {
		jsonError(w, http.StatusNotFound, "box not found")
		return
	}

	var req renameBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Store.RenameBox(r.Context(), barcode, req.Name)
	box, _ := h.Store.FindBox(barcode)
	jsonResponse(w, http.StatusOK, box)
}

// MoveToVan handles PUT /api/boxes/{barcode}/van.
func (h *BoxesHandler) MoveToVan(w http.ResponseWriter, r *http.Request) {
	barcode := r.PathValue("barcode")
	if _, ok := h.Store.FindBox(barcode); !ok {
		jsonError(w, http.StatusNotFound, "box not found")
		return
	}

	var req moveBoxRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Store.MoveBoxToVan(r.Context(), barcode, req.Van)
	box, _ := h.Store.FindBox(barcode)
	jsonResponse(w, http.StatusOK, box)
}
