package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/brightpath/tutoring-backend/internal/config"
	"github.com/brightpath/tutoring-backend/internal/controller"
	"github.com/brightpath/tutoring-backend/internal/handler"
	"github.com/brightpath/tutoring-backend/internal/middleware"
	"github.com/brightpath/tutoring-backend/internal/repository"
	"github.com/brightpath/tutoring-backend/internal/service"
	"github.com/brightpath/tutoring-backend/pkg/database"
	"github.com/brightpath/tutoring-backend/pkg/email"
	"github.com/brightpath/tutoring-backend/pkg/logger"
	"github.com/brightpath/tutoring-backend/pkg/payment"
	"github.com/brightpath/tutoring-backend/pkg/storage"
	"github.com/brightpath/tutoring-backend/pkg/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	db := database.NewDatabase(cfg.DatabaseURL)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewCreditLedgerRepository(db)
	transactionRepo := repository.NewHourTransactionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	processedRepo := repository.NewProcessedEventRepository(db)
	packageRepo := repository.NewCreditPackageRepository(db)
	purchaseRepo := repository.NewUserPurchaseRepository(db)

	// Webhook payload archive (R2)
	archive, err := storage.NewEventArchive(cfg)
	if err != nil {
		log.Fatal("Failed to initialize event archive:", err)
	}

	// Email service
	emailService := email.NewEmailService(zapLogger)

	// Stripe service
	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey)

	// Services
	classifier := service.NewClassifier(cfg.Prices, zapLogger)
	entitlementService := service.NewEntitlementService(
		userRepo,
		ledgerRepo,
		paymentRepo,
		transactionRepo,
		zapLogger,
	)
	paymentService := service.NewPaymentService(
		stripeService,
		userRepo,
		packageRepo,
		purchaseRepo,
		processedRepo,
		entitlementService,
		classifier,
		archive,
		emailService,
		cfg.Environment,
		zapLogger,
	)
	packageService := service.NewPackageService(packageRepo)

	validator := utils.NewValidator()

	// Controllers
	paymentController := controller.NewPaymentController(paymentService)
	entitlementController := controller.NewEntitlementController(entitlementService)
	packageController := controller.NewCreditPackageController(packageService)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentController, cfg.Stripe.WebhookSecret, zapLogger)
	creditHandler := handler.NewCreditHandler(entitlementController, validator)
	adminHandler := handler.NewAdminHandler(entitlementController, validator)
	creditPackageHandler := handler.NewCreditPackageHandler(packageController)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://app.brightpath.io, https://www.brightpath.io, http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberLogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Stripe webhook (public, signature-verified)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Public catalog
	api.Get("/packages", creditPackageHandler.GetAllPackages)
	api.Get("/packages/:id", creditPackageHandler.GetPackageByID)

	// Scheduler/back-office routes
	admin := api.Group("/admin", middleware.AdminMiddleware(cfg.AdminTokenHash))
	admin.Post("/credits/grant", adminHandler.GrantHours)
	admin.Post("/credits/refund", adminHandler.RefundHours)
	admin.Post("/premium/grant", adminHandler.GrantPremium)
	admin.Post("/users/:id/reconcile-premium", adminHandler.ReconcilePremium)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Get("/premium-status", creditHandler.GetPremiumStatus)

		credits := api.Group("/credits")
		credits.Get("/", creditHandler.GetBalance)
		credits.Get("/transactions", creditHandler.GetTransactions)
		credits.Post("/use", creditHandler.UseHours)

		payments := api.Group("/payments")
		payments.Get("/history", paymentHandler.GetPurchaseHistory)
		payments.Post("/checkout/:packageId", paymentHandler.CreateCheckoutSession)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zapLogger.Info("starting server", zap.String("port", port))
	log.Fatal(app.Listen(":" + port))
}
