package models

import "time"

// Gender of a profile
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderTrans  Gender = "Trans"
)

// Valid reports whether g is one of the known genders
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderTrans:
		return true
	}
	return false
}

// Profile is the public identity of a person. Boxes and chats hold copies
// of it taken at creation time.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

// User represents the logged in user of a session
type User struct {
	Profile
	Email          string    `json:"email"`
	IsPremium      bool      `json:"is_premium"`
	DropsRemaining int       `json:"drops_remaining"`
	LastResetTime  time.Time `json:"last_reset_time"`
	PushToken      *string   `json:"push_token,omitempty"`
}

// PhotoBox is a geotagged note left on the map
type PhotoBox struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Note      string    `json:"note"`
	PhotoURL  string    `json:"photo_url"`
	Creator   Profile   `json:"creator"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsFake    bool      `json:"is_fake,omitempty"`
}

// BoxView is a box as seen from the viewer's position. Creator is nil
// while the box is out of reach.
type BoxView struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Note      string    `json:"note"`
	PhotoURL  string    `json:"photo_url"`
	Creator   *Profile  `json:"creator,omitempty"`
	InReach   bool      `json:"in_reach"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsFake    bool      `json:"is_fake,omitempty"`
}

// ChatStatus is the state of a chat thread
type ChatStatus string

const (
	ChatPending  ChatStatus = "pending"
	ChatAccepted ChatStatus = "accepted"
	ChatBlocked  ChatStatus = "blocked"
)

// MessageType is the kind of a chat message
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
	MessagePhoto MessageType = "photo"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageVoice, MessagePhoto:
		return true
	}
	return false
}

// UserSender marks messages authored by the session user
const UserSender = "user"

// ChatMessage is a single entry of a chat thread
type ChatMessage struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"sender_id"`
	Text      string      `json:"text,omitempty"`
	PhotoURL  string      `json:"photo_url,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
	Duration  *int        `json:"duration,omitempty"`
}

// Chat is a conversation with one participant
type Chat struct {
	ID          string        `json:"id"`
	Participant Profile       `json:"participant"`
	Messages    []ChatMessage `json:"messages"`
	Status      ChatStatus    `json:"status"`
	// BlockedFrom is the status restored when a blocked chat is unblocked
	BlockedFrom ChatStatus `json:"-"`
}

// Clone returns a copy that shares no slices with c
func (c Chat) Clone() Chat {
	msgs := make([]ChatMessage, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}

// DangerLevel grades a location in generated lore
type DangerLevel string

const (
	DangerExtreme DangerLevel = "EXTREME"
	DangerHigh    DangerLevel = "HIGH"
	DangerMedium  DangerLevel = "MEDIUM"
	DangerLow     DangerLevel = "LOW"
)

// LoreData is generated flavor text for a named place
type LoreData struct {
	Summary     string      `json:"summary"`
	Vibe        string      `json:"vibe"`
	Status      string      `json:"status"`
	DangerLevel DangerLevel `json:"danger_level"`
}

// Tab is the screen the client shows
type Tab string

const (
	TabMap     Tab = "map"
	TabProfile Tab = "profile"
	TabInbox   Tab = "inbox"
)

// Valid reports whether t is a known tab
func (t Tab) Valid() bool {
	switch t {
	case TabMap, TabProfile, TabInbox:
		return true
	}
	return false
}
