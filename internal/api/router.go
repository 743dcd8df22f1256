package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/averin/ai-chat-api/internal/api/handlers"
	apimw "github.com/averin/ai-chat-api/internal/api/middleware"
	"github.com/averin/ai-chat-api/internal/auth"
	"github.com/averin/ai-chat-api/internal/llm"
	"github.com/averin/ai-chat-api/internal/queue"
	"github.com/averin/ai-chat-api/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	conversationService services.ConversationServiceProvider,
	gateway llm.CompletionProvider,
	textGen handlers.TextGenerator,
	q queue.Queue,
	rateLimitPerMinute int,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS is wide open, matching the demo posture of the API.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(apimw.NewRateLimiter(rateLimitPerMinute).Handler)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tokens)
	chatHandler := handlers.NewChatHandler(gateway, textGen, conversationService, q)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	healthHandler := handlers.NewHealthHandler()

	r.Get("/health", healthHandler.Check)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
	})

	// Everything below requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(tokens.Middleware())

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.Complete)
			r.Post("/background", chatHandler.CompleteBackground)
			r.Post("/background-simple", chatHandler.CompleteBackgroundSimple)
			r.Get("/tasks/{id}", chatHandler.GetTask)
			r.Get("/huggingface", chatHandler.HuggingFace)
		})

		r.Get("/conversations", conversationHandler.List)
	})

	return r
}
