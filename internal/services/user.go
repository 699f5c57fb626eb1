package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dtp-backend/internal/models"
	"dtp-backend/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PremiumPrice is shown to clients. No payment is taken.
const PremiumPrice = 600

// UserConfig holds the demo login and account defaults
type UserConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	EmailMarker string
	Passcode    string
	DailyDrops  int
}

// UserService handles login, the session user and UI selection
type UserService struct {
	sessions *session.Registry
	cfg      UserConfig
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(sessions *session.Registry, cfg UserConfig) *UserService {
	return &UserService{
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LoginResult is returned by a successful Authenticate
type LoginResult struct {
	Token   string
	Session *session.Store
}

// Authenticate checks the demo credential and starts a session
func (s *UserService) Authenticate(ctx context.Context, email, passcode string) (*LoginResult, error) {
	if !strings.Contains(strings.ToLower(email), strings.ToLower(s.cfg.EmailMarker)) || passcode != s.cfg.Passcode {
		return nil, ErrAuthentication
	}

	user := s.defaultUser(email)
	store := s.sessions.Create(user, s.now().Add(s.cfg.TokenTTL))

	token, err := s.GenerateJWT(store.ID(), user.ID)
	if err != nil {
		s.sessions.Remove(store.ID())
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().
		Str("session_id", store.ID()).
		Str("user_id", user.ID).
		Msg("User authenticated")

	return &LoginResult{Token: token, Session: store}, nil
}

func (s *UserService) defaultUser(email string) models.User {
	return models.User{
		Profile: models.Profile{
			ID:       uuid.New().String(),
			Name:     "Cyber_Wanderer",
			Age:      24,
			Gender:   models.GenderMale,
			Bio:      "Leaving traces in the dark streets...",
			PhotoURL: "https://picsum.photos/seed/me/400/400",
		},
		Email:          email,
		DropsRemaining: s.cfg.DailyDrops,
		LastResetTime:  s.now(),
	}
}

// GenerateJWT generates a JWT token bound to a session
func (s *UserService) GenerateJWT(sessionID, userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"user_id":    userID,
		"exp":        now.Add(s.cfg.TokenTTL).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the session ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("%w: session_id not found in token", ErrInvalidToken)
	}

	return sessionID, nil
}

// Session resolves a live session. Sessions end when their token
// expires.
func (s *UserService) Session(sessionID string) (*session.Store, error) {
	return s.sessions.Get(sessionID)
}

// Logout ends the session. Pending acceptance timers and background loads
// bound to it stop.
func (s *UserService) Logout(sessionID string) error {
	if !s.sessions.Remove(sessionID) {
		return session.ErrNotFound
	}
	log.Info().Str("session_id", sessionID).Msg("User logged out")
	return nil
}

// ProfileUpdate carries the profile fields to change. Nil fields are left
// as they are.
type ProfileUpdate struct {
	Name     *string        `json:"name"`
	Age      *int           `json:"age"`
	Gender   *models.Gender `json:"gender"`
	Bio      *string        `json:"bio"`
	PhotoURL *string        `json:"photo_url"`
}

func (u ProfileUpdate) validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if u.Age != nil && (*u.Age < 18 || *u.Age > 120) {
		return fmt.Errorf("%w: age must be between 18 and 120", ErrInvalidInput)
	}
	if u.Gender != nil && !u.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, *u.Gender)
	}
	return nil
}

// UpdateProfile edits the live user profile. Boxes and chats keep the
// profile they were created with.
func (s *UserService) UpdateProfile(store *session.Store, update ProfileUpdate) (models.User, error) {
	if err := update.validate(); err != nil {
		return models.User{}, err
	}

	var user models.User
	err := store.Update(func(st *session.State) error {
		if update.Name != nil {
			st.User.Name = strings.TrimSpace(*update.Name)
		}
		if update.Age != nil {
			st.User.Age = *update.Age
		}
		if update.Gender != nil {
			st.User.Gender = *update.Gender
		}
		if update.Bio != nil {
			st.User.Bio = *update.Bio
		}
		if update.PhotoURL != nil {
			st.User.PhotoURL = *update.PhotoURL
		}
		user = st.User
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// PurchasePremium upgrades the user unconditionally
func (s *UserService) PurchasePremium(store *session.Store) (models.User, error) {
	var user models.User
	err := store.Update(func(st *session.State) error {
		st.User.IsPremium = true
		st.UI.ShowPremiumModal = false
		user = st.User
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	log.Info().Str("session_id", store.ID()).Msg("Premium purchased")
	return user, nil
}

// SetPushToken stores the device token used for push notifications. An
// empty token clears it.
func (s *UserService) SetPushToken(store *session.Store, token string) (models.User, error) {
	token = strings.TrimSpace(token)

	var user models.User
	err := store.Update(func(st *session.State) error {
		if token == "" {
			st.User.PushToken = nil
		} else {
			st.User.PushToken = &token
		}
		user = st.User
		return nil
	})
	return user, err
}

// UIUpdate carries the selection fields to change
type UIUpdate struct {
	ActiveTab        *models.Tab `json:"active_tab"`
	ActiveChatID     *string     `json:"active_chat_id"`
	ShowPremiumModal *bool       `json:"show_premium_modal"`
}

// UpdateUI changes the client's selection state. An empty ActiveChatID
// deselects the chat.
func (s *UserService) UpdateUI(store *session.Store, update UIUpdate) (session.UIState, error) {
	if update.ActiveTab != nil && !update.ActiveTab.Valid() {
		return session.UIState{}, fmt.Errorf("%w: unknown tab %q", ErrInvalidInput, *update.ActiveTab)
	}

	var ui session.UIState
	err := store.Update(func(st *session.State) error {
		if update.ActiveChatID != nil && *update.ActiveChatID != "" && st.FindChat(*update.ActiveChatID) < 0 {
			return ErrChatNotFound
		}
		if update.ActiveTab != nil {
			st.UI.ActiveTab = *update.ActiveTab
		}
		if update.ActiveChatID != nil {
			st.UI.ActiveChatID = *update.ActiveChatID
		}
		if update.ShowPremiumModal != nil {
			st.UI.ShowPremiumModal = *update.ShowPremiumModal
		}
		ui = st.UI
		return nil
	})
	return ui, err
}
