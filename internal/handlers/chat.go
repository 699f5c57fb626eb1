package handlers

import (
	"net/http"

	"dtp-backend/internal/middleware"
	"dtp-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles chat related HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListChats handles GET /api/v1/chats
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chats":  h.chatService.ListChats(s, r.URL.Query().Get("q")),
		"typing": s.Snapshot().Typing,
	})
}

// GetChat handles GET /api/v1/chats/{chat_id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	chat, err := h.chatService.GetChat(s, chi.URLParam(r, "chat_id"))
	if err != nil {
		respondServiceError(w, r, err, "get chat")
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

// SendMessage handles POST /api/v1/chats/{chat_id}/messages. It waits for
// the generated reply to a text message.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req services.MessagePayload
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "send message")
		return
	}

	res, err := h.chatService.SendMessage(r.Context(), s, chi.URLParam(r, "chat_id"), req)
	if err != nil {
		respondServiceError(w, r, err, "send message")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ToggleBlock handles POST /api/v1/chats/{chat_id}/block
func (h *ChatHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	chat, err := h.chatService.ToggleBlock(s, chi.URLParam(r, "chat_id"))
	if err != nil {
		respondServiceError(w, r, err, "toggle block")
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

// CancelRequest handles DELETE /api/v1/chats/{chat_id}
func (h *ChatHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	if err := h.chatService.CancelRequest(s, chi.URLParam(r, "chat_id")); err != nil {
		respondServiceError(w, r, err, "cancel chat request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
