package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dtp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry holds the live sessions
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Store
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Store),
		now:      time.Now,
	}
}

// Create starts a new session for user that lives until expiresAt. A zero
// expiresAt never expires.
func (r *Registry) Create(user models.User, expiresAt time.Time) *Store {
	s := newStore(uuid.New().String(), user, expiresAt)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	log.Debug().Str("session_id", s.id).Str("user_id", user.ID).Time("expires_at", expiresAt).Msg("Session created")
	return s
}

// Get returns the session with the given id. An expired session is
// removed and reported as not found.
func (r *Registry) Get(id string) (*Store, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.expired(r.now()) {
		r.Remove(id)
		return nil, fmt.Errorf("%w: %s expired", ErrNotFound, id)
	}
	return s, nil
}

// Remove closes and forgets the session. Work bound to its context stops.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	log.Debug().Str("session_id", id).Msg("Session removed")
	return true
}

// Sweep removes every expired session and returns how many went away
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Store
	for id, s := range r.sessions {
		if s.expired(now) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("Expired sessions removed")
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close removes every session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Store)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
