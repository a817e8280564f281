package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/http/handlers"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Admin          *handlers.AdminHandler
	Customers      *handlers.CustomersHandler
	Knowledge      *handlers.KnowledgeHandler
	Chat           *handlers.ChatHandler
	AuthMiddleware *auth.AuthMiddleware
	ChatLimiter    ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Users.Me)

	chatHandlers := []fiber.Handler{}
	if cfg.ChatLimiter != nil {
		chatHandlers = append(chatHandlers, ratelimit.Middleware(cfg.ChatLimiter, principalKey))
	}
	chatHandlers = append(chatHandlers, cfg.Chat.Chat)
	protected.Post("/chat", chatHandlers...)

	customers := protected.Group("/customers")
	customers.Get("/", cfg.Customers.List)
	customers.Post("/", cfg.Customers.Create)
	customers.Get("/follow-ups", cfg.Customers.FollowUps)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Put("/:id", cfg.Customers.Update)
	customers.Delete("/:id", cfg.Customers.Delete)

	knowledge := protected.Group("/knowledge")
	knowledge.Get("/", cfg.Knowledge.Search)
	knowledge.Post("/", cfg.Knowledge.Add)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Post("/approve/:username", cfg.Admin.Approve)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/metrics", cfg.Admin.Metrics)
}

func principalKey(c *fiber.Ctx) string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return ""
	}
	return principal.User.ID
}
