package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"dtp-backend/internal/generator"
	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"
	"dtp-backend/internal/repository"
	"dtp-backend/internal/session"

	"github.com/stretchr/testify/require"
)

// fakeGenerator returns canned results and records calls
type fakeGenerator struct {
	mu          sync.Mutex
	drops       generator.Result[[]generator.FakeDrop]
	reply       generator.Result[string]
	lore        generator.Result[models.LoreData]
	replyCalls  int
	loreCalls   int
	lastHistory []models.ChatMessage
	lastMessage string
	release     chan struct{} // when set, Lore blocks until closed
}

func (f *fakeGenerator) FakeDrops(_ context.Context, _ geo.Point, n int) generator.Result[[]generator.FakeDrop] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drops
}

func (f *fakeGenerator) Reply(_ context.Context, _ models.Profile, history []models.ChatMessage, message string) generator.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	f.lastHistory = history
	f.lastMessage = message
	return f.reply
}

func (f *fakeGenerator) Lore(_ context.Context, _ string) generator.Result[models.LoreData] {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loreCalls++
	return f.lore
}

func (f *fakeGenerator) ReplyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replyCalls
}

// recordingNotifier keeps every event it is asked to deliver
type recordingNotifier struct {
	mu     sync.Mutex
	events []WSMessage
}

func (r *recordingNotifier) Notify(_ context.Context, _ *session.Store, msg WSMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
}

func (r *recordingNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// fakeArchive is an in-memory BoxArchive
type fakeArchive struct {
	mu      sync.Mutex
	saved   []*models.PhotoBox
	saveErr error
	recent  []*models.PhotoBox
	getErr  error
}

func (a *fakeArchive) Save(_ context.Context, box *models.PhotoBox) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveErr != nil {
		return a.saveErr
	}
	a.saved = append(a.saved, box)
	return nil
}

func (a *fakeArchive) Recent(_ context.Context, limit int) ([]*models.PhotoBox, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.recent) > limit {
		return a.recent[:limit], nil
	}
	return a.recent, nil
}

func (a *fakeArchive) GetByID(_ context.Context, id string) (*models.PhotoBox, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.getErr != nil {
		return nil, a.getErr
	}
	for _, boxes := range [][]*models.PhotoBox{a.saved, a.recent} {
		for _, box := range boxes {
			if box.ID == id {
				return box, nil
			}
		}
	}
	return nil, repository.ErrBoxNotFound
}

var istanbul = geo.Point{Lat: 41.0082, Lng: 28.9784}

func testUser(id, name string) models.User {
	return models.User{
		Profile: models.Profile{
			ID:     id,
			Name:   name,
			Age:    24,
			Gender: models.GenderMale,
			Bio:    "bio",
		},
		DropsRemaining: 10,
	}
}

// newTestSession creates a session for user, optionally at pos
func newTestSession(t *testing.T, reg *session.Registry, user models.User, pos *geo.Point) *session.Store {
	t.Helper()
	s := reg.Create(user, time.Time{})
	if pos != nil {
		p := *pos
		require.NoError(t, s.Update(func(st *session.State) error {
			st.Position = &p
			return nil
		}))
	}
	return s
}

func addBox(t *testing.T, s *session.Store, box models.PhotoBox) {
	t.Helper()
	require.NoError(t, s.Update(func(st *session.State) error {
		st.Boxes = append(st.Boxes, box)
		return nil
	}))
}

func setChatStatus(t *testing.T, s *session.Store, chatID string, status models.ChatStatus) {
	t.Helper()
	require.NoError(t, s.Update(func(st *session.State) error {
		st.Chats[st.FindChat(chatID)].Status = status
		return nil
	}))
}

func strangerBox(id string) models.PhotoBox {
	return models.PhotoBox{
		ID:   id,
		Lat:  istanbul.Lat + 0.001,
		Lng:  istanbul.Lng,
		Note: "meet me " + id,
		Creator: models.Profile{
			ID:     "creator-" + id,
			Name:   "Neon_Ghost",
			Age:    27,
			Gender: models.GenderFemale,
		},
		CreatedAt: time.Now(),
		IsFake:    true,
	}
}

func ptr[T any](v T) *T {
	return &v
}
