package routes

import (
	"time"

	"github.com/campusfind/campusfind-backend/internal/config"
	"github.com/campusfind/campusfind-backend/internal/handlers"
	"github.com/campusfind/campusfind-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	claimHandler *handlers.ClaimHandler,
	commentHandler *handlers.CommentHandler,
	rewardHandler *handlers.RewardHandler,
	notificationHandler *handlers.NotificationHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Public browse of approved reports
	api.Get("/reports", reportHandler.List)
	api.Get("/reports/:id", reportHandler.Get)
	api.Get("/reports/:id/comments", commentHandler.ListByReport)

	// Authenticated user actions
	jwt := middleware.JWTProtected(cfg)
	api.Post("/reports", jwt, reportHandler.Submit)
	api.Post("/reports/:id/claims", jwt, claimHandler.Create)
	api.Post("/reports/:id/comments", jwt, commentHandler.Create)
	api.Post("/reports/:id/rewards", jwt, rewardHandler.Create)
	api.Post("/rewards/:id/pay", jwt, rewardHandler.InitiatePayment)
	api.Get("/rewards", jwt, rewardHandler.ListMine)

	api.Get("/notifications", jwt, notificationHandler.List)
	api.Get("/notifications/unread-count", jwt, notificationHandler.UnreadCount)
	api.Put("/notifications/read-all", jwt, notificationHandler.MarkAllRead)
	api.Put("/notifications/:id/read", jwt, notificationHandler.MarkRead)
	api.Delete("/notifications/:id", jwt, notificationHandler.Delete)

	// Moderation panel
	admin := api.Group("/admin", jwt, middleware.ModeratorRequired(db, cfg))
	admin.Get("/reports", reportHandler.List)
	admin.Put("/reports/:id/approve", reportHandler.Approve)
	admin.Put("/reports/:id/reject", reportHandler.Reject)
	admin.Get("/reports/:id/claims", claimHandler.ListByReport)
	admin.Put("/claims/:id/approve", claimHandler.Approve)
	admin.Put("/claims/:id/reject", claimHandler.Reject)

	// Gateway webhook — shared-secret auth, no JWT
	api.Post("/webhooks/mpesa", webhookHandler.HandleMpesaCallback)
}
