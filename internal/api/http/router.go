package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/review-feed/internal/api/http/handlers"
	"github.com/spec-kit/review-feed/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Feed           *handlers.FeedHandler
	Tickets        *handlers.TicketsHandler
	Reviews        *handlers.ReviewsHandler
	Social         *handlers.SocialHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protectedAuth.Post("/logout", cfg.Auth.Logout)
	protectedAuth.Post("/password/change", cfg.Auth.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/feed", cfg.Feed.GetFeed)
	protected.Get("/posts", cfg.Feed.GetOwnPosts)

	protected.Post("/tickets", cfg.Tickets.CreateTicket)
	protected.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	protected.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
	protected.Post("/tickets/:id/reviews", cfg.Reviews.CreateRelatedReview)

	protected.Post("/reviews", cfg.Reviews.CreateStandaloneReview)
	protected.Put("/reviews/:id", cfg.Reviews.UpdateReview)
	protected.Delete("/reviews/:id", cfg.Reviews.DeleteReview)

	social := protected.Group("/social")
	social.Get("/relations", cfg.Social.GetRelations)
	social.Post("/follows", cfg.Social.Follow)
	social.Delete("/follows/:id", cfg.Social.Unfollow)
	social.Post("/blocks/:id", cfg.Social.Block)
	social.Delete("/blocks/:id", cfg.Social.Unblock)
	social.Get("/users/search", cfg.Social.SearchUsers)

	protected.Get("/notifications", cfg.Notifications.List)
}
