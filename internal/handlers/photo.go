package handlers

import (
	"net/http"

	"dtp-backend/internal/middleware"
	"dtp-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo upload requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler. A nil service answers
// every upload with 503.
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// UploadPhoto handles POST /api/v1/photos/upload
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r.Context())

	var req services.UploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "generate upload url")
		return
	}

	response, err := h.photoService.GetPreSignedURL(r.Context(), s.ID(), req)
	if err != nil {
		respondServiceError(w, r, err, "generate upload url")
		return
	}

	log.Info().
		Str("session_id", s.ID()).
		Str("photo_id", response.PhotoID).
		Str("filename", req.Filename).
		Msg("Pre-signed URL generated")

	respondJSON(w, http.StatusOK, response)
}
