package routes

import (
	"agrofresh-gh/internal/adapters/http/handlers"
	"agrofresh-gh/internal/adapters/http/middleware"
	"agrofresh-gh/internal/adapters/persistence/repositories"
	"agrofresh-gh/internal/config"
	"agrofresh-gh/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	cropRepo := repositories.NewCropRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, cfg)
	cropService := services.NewCropService(cropRepo, cfg)
	deliveryService := services.NewDeliveryService(orderRepo, cfg)
	orderService := services.NewOrderService(orderRepo, cropRepo, paymentRepo, deliveryService)
	paymentService := services.NewPaymentService(paymentRepo, orderRepo, cropRepo)
	payoutService := services.NewPayoutService(paymentRepo, settingRepo)
	dashboardService := services.NewDashboardService(db)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	cropHandler := handlers.NewCropHandler(cropService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminHandler := handlers.NewAdminHandler(dashboardService, paymentService, settingRepo)
	webhookHandler := handlers.NewWebhookHandler(deliveryService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded images (crop photos, avatars)
	app.Static("/uploads", cfg.Upload.Dir)

	// API group
	api := app.Group("/api")

	// Auth routes (stricter rate limit, no caching)
	auth := api.Group("/auth", middleware.AuthRateLimiter(), middleware.NoCacheHeaders())
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)

	api.Post("/logout", authHandler.Logout)
	api.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// User routes
	users := api.Group("/users")
	users.Get("/verify-email", userHandler.VerifyEmail)
	users.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	users.Get("/profile", middleware.AuthMiddleware(cfg), userHandler.GetProfile)
	users.Put("/profile", middleware.AuthMiddleware(cfg), userHandler.UpdateProfile)
	users.Put("/password", middleware.AuthMiddleware(cfg), userHandler.ChangePassword)
	users.Put("/avatar", middleware.AuthMiddleware(cfg), userHandler.UpdateAvatar)

	// Crop routes (public browsing, farmer-only writes)
	crops := api.Group("/crops")
	crops.Get("/", middleware.OptionalAuth(cfg), cropHandler.List)
	crops.Get("/:id", cropHandler.Get)
	crops.Post("/", middleware.AuthMiddleware(cfg), middleware.FarmerOnly(), cropHandler.Create)
	crops.Put("/:id", middleware.AuthMiddleware(cfg), middleware.FarmerOrAdmin(), cropHandler.Update)
	crops.Delete("/:id", middleware.AuthMiddleware(cfg), middleware.FarmerOrAdmin(), cropHandler.Delete)

	// Order routes
	orders := api.Group("/orders", middleware.AuthMiddleware(cfg))
	orders.Post("/", middleware.BuyerOnly(), orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/sales-report", middleware.FarmerOnly(), orderHandler.GetSalesReport)
	orders.Get("/:id", orderHandler.Get)
	orders.Get("/:id/tracking", orderHandler.GetTracking)
	orders.Put("/:id/status", orderHandler.UpdateStatus)
	orders.Put("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/delivery", orderHandler.BookDelivery)

	// Payment routes
	payments := api.Group("/payments")
	payments.Post("/webhook", middleware.WebhookRateLimiter(), paymentHandler.Webhook)
	payments.Post("/", middleware.AuthMiddleware(cfg), middleware.BuyerOnly(), paymentHandler.Create)
	payments.Get("/history", middleware.AuthMiddleware(cfg), paymentHandler.History)
	payments.Get("/:id/status", middleware.AuthMiddleware(cfg), paymentHandler.GetStatus)
	payments.Post("/:id/simulate", middleware.AuthMiddleware(cfg), paymentHandler.Simulate)
	payments.Put("/:id/cancel", middleware.AuthMiddleware(cfg), middleware.BuyerOnly(), paymentHandler.Cancel)

	// Payout routes (farmers)
	api.Get("/payouts", middleware.AuthMiddleware(cfg), middleware.FarmerOnly(), payoutHandler.GetPayouts)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly())
	admin.Get("/stats", adminHandler.GetStats)
	admin.Get("/activity", adminHandler.GetActivity)
	admin.Get("/users", userHandler.ListUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Put("/users/:id/status", userHandler.SetUserStatus)
	admin.Delete("/users/:id", userHandler.DeleteUser)
	admin.Get("/crops", cropHandler.List)
	admin.Get("/orders", orderHandler.List)
	admin.Get("/payments", adminHandler.ListPayments)
	admin.Delete("/orders/:id", orderHandler.Delete)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)

	// Delivery provider webhooks
	api.Post("/webhooks/sendstack", middleware.WebhookRateLimiter(), webhookHandler.Sendstack)
}
