package handlers

import (
	"net/http"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/middleware"
	"dtp-backend/internal/services"
	"dtp-backend/internal/session"

	"github.com/rs/zerolog/log"
)

// SessionHandler handles login, logout and session state
type SessionHandler struct {
	userService *services.UserService
	boxService  *services.BoxService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(userService *services.UserService, boxService *services.BoxService) *SessionHandler {
	return &SessionHandler{
		userService: userService,
		boxService:  boxService,
	}
}

// LoginRequest is the body of POST /api/v1/sessions
type LoginRequest struct {
	Email    string `json:"email"`
	Passcode string `json:"passcode"`
}

// LoginResponse carries the token for later requests
type LoginResponse struct {
	Token   string           `json:"token"`
	Session session.Snapshot `json:"session"`
}

// Login handles POST /api/v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "log in")
		return
	}

	res, err := h.userService.Authenticate(r.Context(), req.Email, req.Passcode)
	if err != nil {
		respondServiceError(w, r, err, "log in")
		return
	}

	if n := h.boxService.SeedFromArchive(r.Context(), res.Session); n > 0 {
		log.Debug().Str("session_id", res.Session.ID()).Int("count", n).Msg("Session seeded from archive")
	}

	respondJSON(w, http.StatusCreated, LoginResponse{
		Token:   res.Token,
		Session: res.Session.Snapshot(),
	})
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())
	respondJSON(w, http.StatusOK, s.Snapshot())
}

// Logout handles DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())
	if err := h.userService.Logout(s.ID()); err != nil {
		respondServiceError(w, r, err, "log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PositionRequest is the body of PUT /api/v1/session/position. Clients
// that cannot locate themselves send unavailable instead of coordinates.
type PositionRequest struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Unavailable bool     `json:"unavailable"`
}

// UpdatePosition handles PUT /api/v1/session/position
func (h *SessionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req PositionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "update position")
		return
	}

	var err error
	switch {
	case req.Unavailable:
		err = h.boxService.PositionUnavailable(s)
	case req.Lat != nil && req.Lng != nil:
		err = h.boxService.UpdatePosition(s, geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	default:
		respondError(w, "lat and lng are required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "update position")
		return
	}

	respondJSON(w, http.StatusOK, s.Snapshot())
}

// UpdateUI handles PUT /api/v1/session/ui
func (h *SessionHandler) UpdateUI(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req services.UIUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "update ui")
		return
	}

	ui, err := h.userService.UpdateUI(s, req)
	if err != nil {
		respondServiceError(w, r, err, "update ui")
		return
	}
	respondJSON(w, http.StatusOK, ui)
}
