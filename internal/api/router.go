package api

import (
	"nexa/internal/api/handlers"
	"nexa/pkg/auth"
	"nexa/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Rules       *handlers.RuleHandler
	Documents   *handlers.DocumentHandler
	Chat        *handlers.ChatHandler
	Webhooks    *handlers.WebhookHandler
	Dashboard   *handlers.DashboardHandler
	Integration *handlers.IntegrationHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	// Channel webhooks (public, gateway authenticates by instance)
	app.Post("/webhooks/whatsapp", h.Webhooks.WhatsApp)
	app.Post("/webhooks/erp/:id", h.Webhooks.ERP)

	// Protected routes
	protected := app.Group("/api", middleware.AuthMiddleware(jwtManager, appLogger))

	rules := protected.Group("/rules")
	rules.Post("", h.Rules.CreateRule)
	rules.Get("", h.Rules.ListRules)
	rules.Post("/evaluate", h.Rules.EvaluateMessage)
	rules.Get("/:id", h.Rules.GetRule)
	rules.Put("/:id", h.Rules.UpdateRule)
	rules.Patch("/:id/toggle", h.Rules.ToggleRule)
	rules.Delete("/:id", h.Rules.DeleteRule)

	blacklists := protected.Group("/blacklists")
	blacklists.Post("", h.Rules.CreateBlacklist)
	blacklists.Get("", h.Rules.ListBlacklists)
	blacklists.Delete("/:id", h.Rules.DeleteBlacklist)
	blacklists.Post("/:id/numbers", h.Rules.AddBlacklistNumber)
	blacklists.Delete("/:id/numbers", h.Rules.RemoveBlacklistNumber)

	documents := protected.Group("/documents")
	documents.Post("/upload", h.Documents.Upload)
	documents.Post("/crawl", h.Documents.Crawl)
	documents.Post("/search", h.Documents.Search)
	documents.Get("", h.Documents.List)
	documents.Get("/:id", h.Documents.Get)
	documents.Delete("/:id", h.Documents.Delete)

	chat := protected.Group("/chat")
	chat.Get("/conversations", h.Chat.ListConversations)
	chat.Get("/conversations/:id", h.Chat.GetConversation)
	chat.Get("/conversations/:id/messages", h.Chat.ListMessages)
	chat.Post("/conversations/:id/messages", h.Chat.SendMessage)
	chat.Post("/conversations/:id/transfer", h.Chat.Transfer)
	chat.Get("/conversations/:id/summary", h.Chat.Summarize)

	integrations := protected.Group("/integrations")
	integrations.Post("", h.Integration.Create)
	integrations.Get("", h.Integration.List)
	integrations.Put("/:id", h.Integration.Update)
	integrations.Delete("/:id", h.Integration.Delete)

	protected.Get("/dashboard/stats", h.Dashboard.Stats)

	return app
}
