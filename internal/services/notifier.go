package services

import (
	"context"

	"dtp-backend/internal/session"

	"github.com/rs/zerolog/log"
)

// Notifier delivers events to a session's client
type Notifier interface {
	Notify(ctx context.Context, s *session.Store, msg WSMessage)
}

// Pusher sends a push notification to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, msg WSMessage) error
}

// Dispatcher sends events over the session's websocket. When the client
// is offline, events worth a push go to its device instead.
type Dispatcher struct {
	hub    *WSHub
	pusher Pusher
}

// NewDispatcher creates a dispatcher. pusher may be nil.
func NewDispatcher(hub *WSHub, pusher Pusher) *Dispatcher {
	return &Dispatcher{hub: hub, pusher: pusher}
}

func pushable(eventType string) bool {
	return eventType == EventChatAccepted || eventType == EventChatMessage
}

// Notify implements Notifier
func (d *Dispatcher) Notify(ctx context.Context, s *session.Store, msg WSMessage) {
	if d.hub.IsOnline(s.ID()) {
		err := d.hub.SendToSession(s.ID(), msg)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("session_id", s.ID()).Str("type", msg.Type).Msg("Failed to deliver websocket event")
	}

	if d.pusher == nil || !pushable(msg.Type) {
		return
	}
	token := s.User().PushToken
	if token == nil {
		return
	}
	if err := d.pusher.Push(ctx, *token, msg); err != nil {
		log.Error().Err(err).Str("session_id", s.ID()).Str("type", msg.Type).Msg("Failed to send push notification")
	}
}

// nopNotifier drops every event
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, *session.Store, WSMessage) {}
