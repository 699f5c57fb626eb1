package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/middleware"
	"dtp-backend/internal/services"
	"dtp-backend/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients are served from any origin
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	boxService  *services.BoxService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, userService *services.UserService, boxService *services.BoxService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		boxService:  boxService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, err := middleware.ResolveToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(s.ID(), conn)
	defer h.hub.Unregister(s.ID(), conn)

	// logging out drops the connection
	stop := context.AfterFunc(s.Context(), func() { h.hub.Unregister(s.ID(), conn) })
	defer stop()

	log.Info().Str("session_id", s.ID()).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("session_id", s.ID()).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Warn().Err(err).Str("session_id", s.ID()).Msg("Failed to parse WebSocket message")
			h.sendError(s, "Invalid message format")
			continue
		}

		if err := h.handleMessage(s, msg); err != nil {
			log.Debug().Err(err).Str("session_id", s.ID()).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(s, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(s *session.Store, msg services.WSMessage) error {
	switch msg.Type {
	case services.EventPosition:
		if msg.Lat == nil || msg.Lng == nil {
			h.sendError(s, "lat and lng are required")
			return nil
		}
		return h.boxService.UpdatePosition(s, geo.Point{Lat: *msg.Lat, Lng: *msg.Lng})
	case services.EventPositionUnavailable:
		return h.boxService.PositionUnavailable(s)
	case services.EventPing:
		return h.hub.SendToSession(s.ID(), services.WSMessage{Type: services.EventPong})
	default:
		h.sendError(s, "Unknown message type")
		return nil
	}
}

// sendError sends an error event to the session's connection
func (h *WebSocketHandler) sendError(s *session.Store, message string) {
	err := h.hub.SendToSession(s.ID(), services.WSMessage{
		Type:    services.EventError,
		Message: message,
	})
	if err != nil {
		log.Debug().Err(err).Str("session_id", s.ID()).Msg("Failed to send error event")
	}
}
