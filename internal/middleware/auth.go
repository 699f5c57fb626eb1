package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dtp-backend/internal/services"
	"dtp-backend/internal/session"

	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionResolver validates tokens and looks up the session they carry
type SessionResolver interface {
	ValidateJWT(token string) (string, error)
	Session(sessionID string) (*session.Store, error)
}

// AuthMiddleware creates a middleware for JWT authentication. The session
// named by the token is stored in the request context.
func AuthMiddleware(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			s, err := ResolveToken(parts[1], resolver)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected request")
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := WithSession(r.Context(), s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveToken validates token and returns its live session. It is shared
// by the header middleware and the websocket query parameter.
func ResolveToken(token string, resolver SessionResolver) (*session.Store, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token required", services.ErrInvalidToken)
	}
	sessionID, err := resolver.ValidateJWT(token)
	if err != nil {
		return nil, err
	}
	return resolver.Session(sessionID)
}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s *session.Store) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession extracts the session from context
func GetSession(ctx context.Context) *session.Store {
	s, ok := ctx.Value(sessionKey).(*session.Store)
	if !ok {
		return nil
	}
	return s
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
