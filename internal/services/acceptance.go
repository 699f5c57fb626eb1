package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"dtp-backend/internal/models"
	"dtp-backend/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AcceptedText is the participant's message when a request is accepted
const AcceptedText = "Signal received. Connection established."

type acceptanceKey struct {
	sessionID string
	chatID    string
}

type acceptanceTask struct {
	timer   *time.Timer
	release func() bool
}

// AcceptanceScheduler simulates the other party accepting a chat request.
// A request is accepted with the configured probability after a fixed
// delay. The rest stay pending.
type AcceptanceScheduler struct {
	probability float64
	delay       time.Duration
	rand        func() float64
	notifier    Notifier

	mu    sync.Mutex
	tasks map[acceptanceKey]acceptanceTask
}

// NewAcceptanceScheduler creates a scheduler. A nil rnd uses math/rand.
func NewAcceptanceScheduler(probability float64, delay time.Duration, rnd func() float64, notifier Notifier) *AcceptanceScheduler {
	if rnd == nil {
		rnd = rand.Float64
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &AcceptanceScheduler{
		probability: probability,
		delay:       delay,
		rand:        rnd,
		notifier:    notifier,
		tasks:       make(map[acceptanceKey]acceptanceTask),
	}
}

// Schedule draws the outcome for a new request and arms the timer when it
// will be accepted. It reports whether a timer was armed.
func (a *AcceptanceScheduler) Schedule(s *session.Store, chatID string) bool {
	if a.rand() >= a.probability {
		log.Debug().Str("session_id", s.ID()).Str("chat_id", chatID).Msg("Chat request left pending")
		return false
	}

	key := acceptanceKey{sessionID: s.ID(), chatID: chatID}

	a.mu.Lock()
	defer a.mu.Unlock()

	timer := time.AfterFunc(a.delay, func() { a.fire(s, key) })
	// stop the timer when the session goes away
	release := context.AfterFunc(s.Context(), func() { a.Cancel(key.sessionID, key.chatID) })
	a.tasks[key] = acceptanceTask{timer: timer, release: release}
	return true
}

// Cancel stops the timer of a chat. It reports whether one was armed.
func (a *AcceptanceScheduler) Cancel(sessionID, chatID string) bool {
	key := acceptanceKey{sessionID: sessionID, chatID: chatID}

	a.mu.Lock()
	task, ok := a.tasks[key]
	delete(a.tasks, key)
	a.mu.Unlock()

	if !ok {
		return false
	}
	task.timer.Stop()
	task.release()
	return true
}

// Pending returns the number of armed timers
func (a *AcceptanceScheduler) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tasks)
}

// Stop cancels every timer
func (a *AcceptanceScheduler) Stop() {
	a.mu.Lock()
	tasks := a.tasks
	a.tasks = make(map[acceptanceKey]acceptanceTask)
	a.mu.Unlock()

	for _, task := range tasks {
		task.timer.Stop()
		task.release()
	}
}

func (a *AcceptanceScheduler) fire(s *session.Store, key acceptanceKey) {
	a.mu.Lock()
	task, ok := a.tasks[key]
	delete(a.tasks, key)
	a.mu.Unlock()

	if !ok {
		return
	}
	task.release()

	var accepted models.Chat
	err := s.Update(func(st *session.State) error {
		i := st.FindChat(key.chatID)
		if i < 0 {
			return nil
		}
		chat := &st.Chats[i]
		switch {
		case chat.Status == models.ChatPending:
			chat.Status = models.ChatAccepted
		case chat.Status == models.ChatBlocked && chat.BlockedFrom == models.ChatPending:
			// accepted while blocked; unblocking reveals it
			chat.BlockedFrom = models.ChatAccepted
		default:
			return nil
		}
		chat.Messages = append(chat.Messages, models.ChatMessage{
			ID:        uuid.New().String(),
			SenderID:  chat.Participant.ID,
			Text:      AcceptedText,
			Timestamp: time.Now(),
			Type:      models.MessageText,
		})
		accepted = chat.Clone()
		return nil
	})
	if errors.Is(err, session.ErrClosed) || accepted.ID == "" {
		return
	}
	if accepted.Status == models.ChatBlocked {
		log.Debug().Str("session_id", key.sessionID).Str("chat_id", key.chatID).Msg("Chat request accepted while blocked")
		return
	}

	log.Info().Str("session_id", key.sessionID).Str("chat_id", key.chatID).Msg("Chat request accepted")

	a.notifier.Notify(s.Context(), s, WSMessage{
		Type:    EventChatAccepted,
		ChatID:  accepted.ID,
		Message: accepted.Participant.Name + " accepted your signal",
		Data:    accepted,
	})
}
