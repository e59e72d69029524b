package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/zaboj/internal/inventory"
)

// VansHandler handles van registry endpoints.
type VansHandler struct {
	Store *inventory.Store
}

type addVanRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/vans.
func (h *VansHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.Vans())
}

// Add handles POST /api/vans.
func (h *VansHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addVanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "van name required")
		return
	}

	h.Store.AddVan(r.Context(), req.Name)
	jsonResponse(w, http.StatusOK, h.Store.Vans())
}
