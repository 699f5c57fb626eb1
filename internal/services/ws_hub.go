package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket message types
const (
	EventChatAccepted        = "chat_accepted"
	EventChatMessage         = "chat_message"
	EventBoxesUpdated        = "boxes_updated"
	EventError               = "error"
	EventPosition            = "position"
	EventPositionUnavailable = "position_unavailable"
	EventPing                = "ping"
	EventPong                = "pong"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	ChatID    string      `json:"chat_id,omitempty"`
	Lat       *float64    `json:"lat,omitempty"`
	Lng       *float64    `json:"lng,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

const writeWait = 10 * time.Second

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per session
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a session, replacing
// any previous one
func (h *WSHub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[sessionID]; ok {
		existing.conn.Close()
	}
	h.clients[sessionID] = &wsClient{conn: conn}

	log.Info().Str("session_id", sessionID).Msg("WebSocket connection registered")
}

// Unregister removes conn if it is still the session's connection
func (h *WSHub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[sessionID]; ok && c.conn == conn {
		c.conn.Close()
		delete(h.clients, sessionID)
		log.Info().Str("session_id", sessionID).Msg("WebSocket connection unregistered")
	}
}

// SendToSession sends a message to a session's connection
func (h *WSHub) SendToSession(sessionID string, message WSMessage) error {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("session %s is not connected", sessionID)
	}

	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(sessionID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a session has a live connection
func (h *WSHub) IsOnline(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// Close drops every connection
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
		delete(h.clients, id)
	}
}
