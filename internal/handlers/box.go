package handlers

import (
	"net/http"

	"dtp-backend/internal/middleware"
	"dtp-backend/internal/models"
	"dtp-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// BoxHandler handles box related HTTP requests
type BoxHandler struct {
	boxService  *services.BoxService
	chatService *services.ChatService
}

// NewBoxHandler creates a new box handler
func NewBoxHandler(boxService *services.BoxService, chatService *services.ChatService) *BoxHandler {
	return &BoxHandler{
		boxService:  boxService,
		chatService: chatService,
	}
}

// DropResponse is returned by a successful drop
type DropResponse struct {
	Box            *models.PhotoBox `json:"box"`
	DropsRemaining int              `json:"drops_remaining"`
}

// ListBoxes handles GET /api/v1/boxes
func (h *BoxHandler) ListBoxes(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"boxes":   h.boxService.ListBoxes(s),
		"loading": s.Snapshot().LoadingBoxes,
	})
}

// GetBox handles GET /api/v1/boxes/{box_id}
func (h *BoxHandler) GetBox(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	view, err := h.boxService.ViewBox(r.Context(), s, chi.URLParam(r, "box_id"))
	if err != nil {
		respondServiceError(w, r, err, "get box")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DropBox handles POST /api/v1/boxes
func (h *BoxHandler) DropBox(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req services.DropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "drop box")
		return
	}

	box, err := h.boxService.SubmitDrop(r.Context(), s, req)
	if err != nil {
		respondServiceError(w, r, err, "drop box")
		return
	}

	respondJSON(w, http.StatusCreated, DropResponse{
		Box:            box,
		DropsRemaining: s.User().DropsRemaining,
	})
}

// RequestChat handles POST /api/v1/boxes/{box_id}/chat
func (h *BoxHandler) RequestChat(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	chat, created, err := h.chatService.RequestChat(s, chi.URLParam(r, "box_id"))
	if err != nil {
		respondServiceError(w, r, err, "request chat")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, chat)
}
