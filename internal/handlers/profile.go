package handlers

import (
	"net/http"

	"dtp-backend/internal/middleware"
	"dtp-backend/internal/models"
	"dtp-backend/internal/services"
)

// ProfileHandler handles profile and account requests
type ProfileHandler struct {
	userService *services.UserService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService *services.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req services.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "update profile")
		return
	}

	user, err := h.userService.UpdateProfile(s, req)
	if err != nil {
		respondServiceError(w, r, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PushTokenRequest is the body of PUT /api/v1/profile/push-token
type PushTokenRequest struct {
	Token string `json:"token"`
}

// SetPushToken handles PUT /api/v1/profile/push-token
func (h *ProfileHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req PushTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "set push token")
		return
	}

	user, err := h.userService.SetPushToken(s, req.Token)
	if err != nil {
		respondServiceError(w, r, err, "set push token")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PremiumResponse is returned after the upgrade
type PremiumResponse struct {
	User  models.User `json:"user"`
	Price int         `json:"price"`
}

// PurchasePremium handles POST /api/v1/premium
func (h *ProfileHandler) PurchasePremium(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	user, err := h.userService.PurchasePremium(s)
	if err != nil {
		respondServiceError(w, r, err, "purchase premium")
		return
	}
	respondJSON(w, http.StatusOK, PremiumResponse{User: user, Price: services.PremiumPrice})
}
