package handlers

import (
	"net/http"

	"dtp-backend/internal/middleware"
	"dtp-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services are the dependencies of the HTTP API. Photos may be nil when
// object storage is not configured.
type Services struct {
	Users  *services.UserService
	Boxes  *services.BoxService
	Chats  *services.ChatService
	Lore   *services.LoreService
	Photos *services.PhotoService
	Hub    *services.WSHub
}

// NewRouter builds the REST and websocket routes
func NewRouter(svc Services) http.Handler {
	sessionHandler := NewSessionHandler(svc.Users, svc.Boxes)
	boxHandler := NewBoxHandler(svc.Boxes, svc.Chats)
	chatHandler := NewChatHandler(svc.Chats)
	profileHandler := NewProfileHandler(svc.Users)
	photoHandler := NewPhotoHandler(svc.Photos)
	loreHandler := NewLoreHandler(svc.Lore)
	wsHandler := NewWebSocketHandler(svc.Hub, svc.Users, svc.Boxes)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/sessions", sessionHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))

			r.Get("/session", sessionHandler.GetSession)
			r.Delete("/session", sessionHandler.Logout)
			r.Put("/session/position", sessionHandler.UpdatePosition)
			r.Put("/session/ui", sessionHandler.UpdateUI)

			r.Get("/boxes", boxHandler.ListBoxes)
			r.Post("/boxes", boxHandler.DropBox)
			r.Get("/boxes/{box_id}", boxHandler.GetBox)
			r.Post("/boxes/{box_id}/chat", boxHandler.RequestChat)

			r.Get("/chats", chatHandler.ListChats)
			r.Get("/chats/{chat_id}", chatHandler.GetChat)
			r.Post("/chats/{chat_id}/messages", chatHandler.SendMessage)
			r.Post("/chats/{chat_id}/block", chatHandler.ToggleBlock)
			r.Delete("/chats/{chat_id}", chatHandler.CancelRequest)

			r.Patch("/profile", profileHandler.UpdateProfile)
			r.Put("/profile/push-token", profileHandler.SetPushToken)
			r.Post("/premium", profileHandler.PurchasePremium)

			r.Post("/photos/upload", photoHandler.UploadPhoto)
			r.Get("/lore", loreHandler.GetLore)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
