package handlers

import (
	"net/http"

	"dtp-backend/internal/models"
	"dtp-backend/internal/services"
)

// LoreHandler serves generated lore for map locations
type LoreHandler struct {
	loreService *services.LoreService
}

// NewLoreHandler creates a new lore handler
func NewLoreHandler(loreService *services.LoreService) *LoreHandler {
	return &LoreHandler{loreService: loreService}
}

// LoreResponse carries the lore, or a null lore and the reason it failed
type LoreResponse struct {
	Lore  *models.LoreData `json:"lore"`
	Error string           `json:"error,omitempty"`
}

// GetLore handles GET /api/v1/lore
func (h *LoreHandler) GetLore(w http.ResponseWriter, r *http.Request) {
	res, err := h.loreService.Lore(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		respondServiceError(w, r, err, "get lore")
		return
	}

	if !res.OK {
		respondJSON(w, http.StatusOK, LoreResponse{Error: "generation failed"})
		return
	}
	respondJSON(w, http.StatusOK, LoreResponse{Lore: &res.Data})
}
