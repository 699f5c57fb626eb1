// Package session keeps the per-login interaction state: the user, the
// viewer position, boxes, chats and the client's UI selection.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session closed")
)

// UIState is the selection state the client renders from
type UIState struct {
	ActiveTab        models.Tab `json:"active_tab"`
	ActiveChatID     string     `json:"active_chat_id,omitempty"`
	ShowPremiumModal bool       `json:"show_premium_modal"`
}

// State is the mutable content of a session. It is only reachable inside
// Store.Update and Store.View.
type State struct {
	User           models.User
	Position       *geo.Point
	Boxes          []models.PhotoBox // newest first
	Chats          []models.Chat     // newest first
	UI             UIState
	PendingReplies int // outstanding reply generations
	LoadingBoxes   bool
}

// FindChat returns the index of the chat with the given id or -1
func (st *State) FindChat(id string) int {
	for i := range st.Chats {
		if st.Chats[i].ID == id {
			return i
		}
	}
	return -1
}

// FindChatByParticipant returns the index of the chat with the given
// participant id or -1
func (st *State) FindChatByParticipant(profileID string) int {
	for i := range st.Chats {
		if st.Chats[i].Participant.ID == profileID {
			return i
		}
	}
	return -1
}

// FindBox returns the index of the box with the given id or -1
func (st *State) FindBox(id string) int {
	for i := range st.Boxes {
		if st.Boxes[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is a read-only summary of a session
type Snapshot struct {
	ID           string      `json:"id"`
	User         models.User `json:"user"`
	Position     *geo.Point  `json:"position,omitempty"`
	UI           UIState     `json:"ui"`
	Typing       bool        `json:"typing"`
	LoadingBoxes bool        `json:"loading_boxes"`
	BoxCount     int         `json:"box_count"`
	ChatCount    int         `json:"chat_count"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Store guards one session's State
type Store struct {
	id        string
	createdAt time.Time
	expiresAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	mu    sync.RWMutex
	state State
}

func newStore(id string, user models.User, expiresAt time.Time) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		id:        id,
		createdAt: time.Now(),
		expiresAt: expiresAt,
		ctx:       ctx,
		cancel:    cancel,
		state: State{
			User: user,
			UI:   UIState{ActiveTab: models.TabMap},
		},
	}
}

// ID returns the session id
func (s *Store) ID() string {
	return s.id
}

// ExpiresAt returns when the session ends, zero for never
func (s *Store) ExpiresAt() time.Time {
	return s.expiresAt
}

func (s *Store) expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

// Context is cancelled when the session is removed
func (s *Store) Context() context.Context {
	return s.ctx
}

// Closed reports whether the session was removed
func (s *Store) Closed() bool {
	return s.ctx.Err() != nil
}

// Update runs fn under the write lock. Nothing runs once the session is
// closed.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Closed() {
		return ErrClosed
	}
	return fn(&s.state)
}

// View runs fn under the read lock. fn must not retain slices of st.
func (s *Store) View(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// User returns a copy of the session user
func (s *Store) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// Position returns a copy of the viewer position, nil when unknown
func (s *Store) Position() *geo.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Position == nil {
		return nil
	}
	p := *s.state.Position
	return &p
}

// Boxes returns a copy of all boxes, newest first
func (s *Store) Boxes() []models.PhotoBox {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PhotoBox(nil), s.state.Boxes...)
}

// Chat returns a copy of the chat with the given id
func (s *Store) Chat(id string) (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.state.FindChat(id)
	if i < 0 {
		return models.Chat{}, false
	}
	return s.state.Chats[i].Clone(), true
}

// Chats returns copies of all chats, newest first
func (s *Store) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := make([]models.Chat, len(s.state.Chats))
	for i, c := range s.state.Chats {
		chats[i] = c.Clone()
	}
	return chats
}

// Snapshot summarizes the session
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:           s.id,
		User:         s.state.User,
		UI:           s.state.UI,
		Typing:       s.state.PendingReplies > 0,
		LoadingBoxes: s.state.LoadingBoxes,
		BoxCount:     len(s.state.Boxes),
		ChatCount:    len(s.state.Chats),
		CreatedAt:    s.createdAt,
	}
	if s.state.Position != nil {
		p := *s.state.Position
		snap.Position = &p
	}
	return snap
}

// close cancels the context under the write lock so no Update is in
// flight once it returns
func (s *Store) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}
