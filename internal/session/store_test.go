package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() models.User {
	return models.User{
		Profile:        models.Profile{ID: "u1", Name: "Cyber_Wanderer", Age: 24, Gender: models.GenderMale},
		DropsRemaining: 10,
	}
}

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry()
	s := r.Create(testUser(), time.Time{})

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove(s.ID()))
	assert.False(t, r.Remove(s.ID()))
	assert.True(t, s.Closed())
	assert.Error(t, s.Context().Err())

	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ExpiredSessionIsRemovedOnGet(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.now = func() time.Time { return now }
	s := r.Create(testUser(), now.Add(time.Hour))

	_, err := r.Get(s.ID())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, r.Len())
	assert.True(t, s.Closed())
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.now = func() time.Time { return now }

	short := r.Create(testUser(), now.Add(time.Minute))
	long := r.Create(testUser(), now.Add(time.Hour))
	forever := r.Create(testUser(), time.Time{})

	var stopped atomic.Bool
	stop := context.AfterFunc(short.Context(), func() { stopped.Store(true) })
	defer stop()

	assert.Zero(t, r.Sweep())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.True(t, short.Closed())
	assert.False(t, long.Closed())
	assert.False(t, forever.Closed())
	assert.Equal(t, 2, r.Len())
	assert.Eventually(t, stopped.Load, time.Second, time.Millisecond)

	now = now.Add(24 * 365 * time.Hour)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.False(t, forever.Closed())
}

func TestRegistry_RunSweeper(t *testing.T) {
	r := NewRegistry()
	s := r.Create(testUser(), time.Now().Add(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, s.Closed, time.Second, 5*time.Millisecond)
	assert.Zero(t, r.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	a := r.Create(testUser(), time.Time{})
	b := r.Create(testUser(), time.Time{})

	r.Close()

	assert.Zero(t, r.Len())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

func TestStore_DefaultState(t *testing.T) {
	s := NewRegistry().Create(testUser(), time.Time{})

	snap := s.Snapshot()
	assert.Equal(t, models.TabMap, snap.UI.ActiveTab)
	assert.Nil(t, snap.Position)
	assert.Zero(t, snap.BoxCount)
	assert.Equal(t, "u1", snap.User.ID)
}

func TestStore_UpdateAfterCloseIsRejected(t *testing.T) {
	r := NewRegistry()
	s := r.Create(testUser(), time.Time{})
	r.Remove(s.ID())

	called := false
	err := s.Update(func(st *State) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, called)
}

func TestStore_UpdatePropagatesError(t *testing.T) {
	s := NewRegistry().Create(testUser(), time.Time{})
	boom := errors.New("boom")
	assert.ErrorIs(t, s.Update(func(st *State) error { return boom }), boom)
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s := NewRegistry().Create(testUser(), time.Time{})
	require.NoError(t, s.Update(func(st *State) error {
		st.Position = &geo.Point{Lat: 1, Lng: 2}
		st.Boxes = append(st.Boxes, models.PhotoBox{ID: "b1", Note: "hi"})
		st.Chats = append(st.Chats, models.Chat{
			ID:       "c1",
			Status:   models.ChatPending,
			Messages: []models.ChatMessage{{ID: "m1", Text: "first"}},
		})
		return nil
	}))

	pos := s.Position()
	pos.Lat = 99
	boxes := s.Boxes()
	boxes[0].Note = "changed"
	chat, ok := s.Chat("c1")
	require.True(t, ok)
	chat.Messages[0].Text = "changed"
	chats := s.Chats()
	chats[0].Messages = append(chats[0].Messages, models.ChatMessage{ID: "m2"})

	assert.Equal(t, 1.0, s.Position().Lat)
	assert.Equal(t, "hi", s.Boxes()[0].Note)
	again, _ := s.Chat("c1")
	assert.Equal(t, "first", again.Messages[0].Text)
	assert.Len(t, again.Messages, 1)
}

func TestState_Find(t *testing.T) {
	st := &State{
		Boxes: []models.PhotoBox{{ID: "b1"}, {ID: "b2"}},
		Chats: []models.Chat{
			{ID: "c1", Participant: models.Profile{ID: "p1"}},
			{ID: "c2", Participant: models.Profile{ID: "p2"}},
		},
	}
	assert.Equal(t, 1, st.FindBox("b2"))
	assert.Equal(t, -1, st.FindBox("nope"))
	assert.Equal(t, 0, st.FindChat("c1"))
	assert.Equal(t, 1, st.FindChatByParticipant("p2"))
	assert.Equal(t, -1, st.FindChatByParticipant("p3"))
}
