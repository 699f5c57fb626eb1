package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dtp-backend/internal/generator"
	"dtp-backend/internal/models"
	"dtp-backend/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SignalLostText replaces a reply the generator could not produce
const SignalLostText = "Signal lost... Try again."

// ChatService handles chat requests and messaging
type ChatService struct {
	generator generator.Generator
	scheduler *AcceptanceScheduler
	notifier  Notifier
	now       func() time.Time
}

// NewChatService creates a new chat service. notifier may be nil.
func NewChatService(gen generator.Generator, scheduler *AcceptanceScheduler, notifier Notifier) *ChatService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ChatService{
		generator: gen,
		scheduler: scheduler,
		notifier:  notifier,
		now:       time.Now,
	}
}

// RequestChat opens a chat with the creator of a box. An existing chat
// with the same person is selected instead of creating another one. The
// returned flag tells whether a chat was created.
func (c *ChatService) RequestChat(s *session.Store, boxID string) (models.Chat, bool, error) {
	var (
		chat    models.Chat
		created bool
	)
	err := s.Update(func(st *session.State) error {
		bi := st.FindBox(boxID)
		if bi < 0 {
			return ErrBoxNotFound
		}
		box := st.Boxes[bi]
		if box.Creator.ID == st.User.ID {
			return ErrSelfInteraction
		}

		if ci := st.FindChatByParticipant(box.Creator.ID); ci >= 0 {
			chat = st.Chats[ci].Clone()
		} else {
			chat = models.Chat{
				ID:          uuid.New().String(),
				Participant: box.Creator,
				Messages: []models.ChatMessage{{
					ID:        uuid.New().String(),
					SenderID:  models.UserSender,
					Text:      fmt.Sprintf("Connection request sent: %q", box.Note),
					Timestamp: c.now(),
					Type:      models.MessageText,
				}},
				Status: models.ChatPending,
			}
			st.Chats = append([]models.Chat{chat}, st.Chats...)
			chat = chat.Clone()
			created = true
		}

		st.UI.ActiveChatID = chat.ID
		st.UI.ActiveTab = models.TabInbox
		return nil
	})
	if err != nil {
		return models.Chat{}, false, err
	}

	if created {
		log.Info().
			Str("session_id", s.ID()).
			Str("chat_id", chat.ID).
			Str("box_id", boxID).
			Msg("Chat requested")
		c.scheduler.Schedule(s, chat.ID)
	}

	return chat, created, nil
}

// MessagePayload is the content of an outgoing message
type MessagePayload struct {
	Type     models.MessageType `json:"type"`
	Text     string             `json:"text"`
	PhotoURL string             `json:"photo_url"`
	Duration *int               `json:"duration"`
}

func (p *MessagePayload) normalize() error {
	if p.Type == "" {
		p.Type = models.MessageText
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, p.Type)
	}
	if p.Type == models.MessageText && strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if p.Type == models.MessagePhoto && p.PhotoURL == "" {
		return fmt.Errorf("%w: photo_url is required", ErrInvalidInput)
	}
	return nil
}

// SendResult describes what SendMessage appended
type SendResult struct {
	Applied          bool                `json:"applied"`
	Message          *models.ChatMessage `json:"message,omitempty"`
	Reply            *models.ChatMessage `json:"reply,omitempty"`
	GenerationFailed bool                `json:"generation_failed,omitempty"`
}

// SendMessage appends a user message to an accepted chat. Text messages
// wait for a generated reply from the participant. Voice and photo
// messages never get one. Chats that are not accepted are left untouched.
func (c *ChatService) SendMessage(ctx context.Context, s *session.Store, chatID string, payload MessagePayload) (*SendResult, error) {
	var (
		result      SendResult
		participant models.Profile
		history     []models.ChatMessage
	)
	err := s.Update(func(st *session.State) error {
		i := st.FindChat(chatID)
		if i < 0 {
			return ErrChatNotFound
		}
		chat := &st.Chats[i]
		if chat.Status != models.ChatAccepted {
			return nil
		}
		if err := payload.normalize(); err != nil {
			return err
		}

		msg := models.ChatMessage{
			ID:        uuid.New().String(),
			SenderID:  models.UserSender,
			Text:      payload.Text,
			PhotoURL:  payload.PhotoURL,
			Timestamp: c.now(),
			Type:      payload.Type,
			Duration:  payload.Duration,
		}
		participant = chat.Participant
		history = append([]models.ChatMessage(nil), chat.Messages...)
		chat.Messages = append(chat.Messages, msg)

		result.Applied = true
		result.Message = &msg
		if msg.Type == models.MessageText {
			st.PendingReplies++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Applied || result.Message.Type != models.MessageText {
		return &result, nil
	}

	res := c.generator.Reply(ctx, participant, history, payload.Text)
	text := res.Data
	if !res.OK {
		result.GenerationFailed = true
		text = SignalLostText
	}

	reply := models.ChatMessage{
		ID:        uuid.New().String(),
		SenderID:  participant.ID,
		Text:      text,
		Timestamp: c.now(),
		Type:      models.MessageText,
	}
	var appended bool
	err = s.Update(func(st *session.State) error {
		st.PendingReplies--
		if i := st.FindChat(chatID); i >= 0 {
			st.Chats[i].Messages = append(st.Chats[i].Messages, reply)
			appended = true
		}
		return nil
	})
	if errors.Is(err, session.ErrClosed) || !appended {
		log.Debug().Str("session_id", s.ID()).Str("chat_id", chatID).Msg("Reply dropped, chat is gone")
		return &result, nil
	}

	result.Reply = &reply
	c.notifier.Notify(ctx, s, WSMessage{
		Type:    EventChatMessage,
		ChatID:  chatID,
		Message: participant.Name + ": " + reply.Text,
		Data:    reply,
	})

	return &result, nil
}

// ToggleBlock blocks a chat, or unblocks a blocked chat back to the status
// it had before. Blocking the active chat deselects it. A pending request
// keeps its acceptance timer and may be accepted while blocked.
func (c *ChatService) ToggleBlock(s *session.Store, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := s.Update(func(st *session.State) error {
		i := st.FindChat(chatID)
		if i < 0 {
			return ErrChatNotFound
		}
		ch := &st.Chats[i]
		if ch.Status == models.ChatBlocked {
			ch.Status = ch.BlockedFrom
			if ch.Status == "" {
				ch.Status = models.ChatAccepted
			}
			ch.BlockedFrom = ""
		} else {
			ch.BlockedFrom = ch.Status
			ch.Status = models.ChatBlocked
			if st.UI.ActiveChatID == chatID {
				st.UI.ActiveChatID = ""
			}
		}
		chat = ch.Clone()
		return nil
	})
	if err != nil {
		return models.Chat{}, err
	}

	log.Info().
		Str("session_id", s.ID()).
		Str("chat_id", chatID).
		Str("status", string(chat.Status)).
		Msg("Chat block toggled")

	return chat, nil
}

// CancelRequest withdraws a pending chat request
func (c *ChatService) CancelRequest(s *session.Store, chatID string) error {
	err := s.Update(func(st *session.State) error {
		i := st.FindChat(chatID)
		if i < 0 {
			return ErrChatNotFound
		}
		if st.Chats[i].Status != models.ChatPending {
			return ErrNotPending
		}
		st.Chats = append(st.Chats[:i], st.Chats[i+1:]...)
		if st.UI.ActiveChatID == chatID {
			st.UI.ActiveChatID = ""
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.scheduler.Cancel(s.ID(), chatID)
	log.Info().Str("session_id", s.ID()).Str("chat_id", chatID).Msg("Chat request cancelled")
	return nil
}

// ListChats returns chats whose participant name contains query, case
// insensitively. An empty query matches all.
func (c *ChatService) ListChats(s *session.Store, query string) []models.Chat {
	query = strings.ToLower(strings.TrimSpace(query))
	chats := s.Chats()
	if query == "" {
		return chats
	}

	filtered := chats[:0]
	for _, chat := range chats {
		if strings.Contains(strings.ToLower(chat.Participant.Name), query) {
			filtered = append(filtered, chat)
		}
	}
	return filtered
}

// GetChat returns one chat
func (c *ChatService) GetChat(s *session.Store, chatID string) (models.Chat, error) {
	chat, ok := s.Chat(chatID)
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, nil
}
