package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dtp-backend/internal/services"
	"dtp-backend/internal/session"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies. Photos may arrive inline as data URLs.
const maxBodyBytes = 10 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

var errorStatusMap = map[error]int{
	services.ErrAuthentication:       http.StatusUnauthorized,
	services.ErrInvalidToken:         http.StatusUnauthorized,
	session.ErrNotFound:              http.StatusUnauthorized,
	session.ErrClosed:                http.StatusUnauthorized,
	services.ErrOutOfRange:           http.StatusForbidden,
	services.ErrQuotaExceeded:        http.StatusTooManyRequests,
	services.ErrSelfInteraction:      http.StatusConflict,
	services.ErrNotPending:           http.StatusConflict,
	services.ErrBoxNotFound:          http.StatusNotFound,
	services.ErrChatNotFound:         http.StatusNotFound,
	services.ErrInvalidInput:         http.StatusBadRequest,
	services.ErrPhotoStorageDisabled: http.StatusServiceUnavailable,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps a service error to its status. Unexpected
// errors are logged and hidden from the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Failed to " + action)
		respondError(w, "Failed to "+action, status)
		return
	}

	log.Debug().
		Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request rejected")
	respondError(w, err.Error(), status)
}

// respondJSON sends v as a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", services.ErrInvalidInput)
	}
	return nil
}
