package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nkallio/cardwall/internal/api/handlers"
	"github.com/nkallio/cardwall/internal/auth"
	"github.com/nkallio/cardwall/internal/config"
	"github.com/nkallio/cardwall/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	containerService services.ContainerServiceProvider,
	cardService services.CardServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens, cfg.AppEnv == "production")
	containerHandler := handlers.NewContainerHandler(containerService)
	cardHandler := handlers.NewCardHandler(cardService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Everything below requires a valid bearer access token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Get("/user", authHandler.UserArea)
			r.Get("/profile", authHandler.Profile)

			r.Route("/containers", func(r chi.Router) {
				r.Get("/", containerHandler.GetAll)
				r.Post("/", containerHandler.Create)
				r.Put("/reorder", containerHandler.Reorder)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", containerHandler.Get)
					r.Put("/", containerHandler.Update)
					r.Delete("/", containerHandler.Delete)
				})
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", cardHandler.GetAll)
				r.Post("/", cardHandler.Create)
				r.Put("/reorder", cardHandler.Reorder)
				r.Route("/{uuid}", func(r chi.Router) {
					r.Get("/", cardHandler.Get)
					r.Put("/", cardHandler.Update)
					r.Delete("/", cardHandler.Delete)
					r.Post("/comments", cardHandler.AddComment)
					r.Put("/comments/{commentId}", cardHandler.UpdateComment)
					r.Delete("/comments/{commentId}", cardHandler.RemoveComment)
				})
			})
		})
	})

	return r
}
