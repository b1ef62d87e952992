package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auditlog"
	"github.com/juansemartinez01/API-FACTURACION/internal/auth"
	"github.com/juansemartinez01/API-FACTURACION/internal/config"
	"github.com/juansemartinez01/API-FACTURACION/internal/database"
	"github.com/juansemartinez01/API-FACTURACION/internal/events"
	"github.com/juansemartinez01/API-FACTURACION/internal/handlers"
	"github.com/juansemartinez01/API-FACTURACION/internal/invoices"
	"github.com/juansemartinez01/API-FACTURACION/internal/logger"
	"github.com/juansemartinez01/API-FACTURACION/internal/rabbitmq"
	"github.com/juansemartinez01/API-FACTURACION/internal/routes"
	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
	"github.com/juansemartinez01/API-FACTURACION/internal/tenants"
	"github.com/juansemartinez01/API-FACTURACION/internal/vatcondition"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.L()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Run schema migrations
	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to RabbitMQ
	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, log)
	if err := rmq.Connect(); err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	publisher, err := events.NewPublisher(rmq, cfg.Events.OutcomeQueue, log)
	if err != nil {
		log.Fatal("Failed to set up outcome publisher", zap.Error(err))
	}

	// Stores and domain services
	tenantStore := tenants.NewStore(db)
	invoiceStore := invoices.NewStore(db)
	auditStore := auditlog.NewStore(db, log)

	authService := auth.NewService(tenantStore, &cfg.Auth)
	vatService := vatcondition.NewService(&cfg.Submitter, log)

	client := submitter.NewClient(&cfg.Submitter, log)
	policy := submitter.RetryPolicy{
		MaxAttempts: cfg.Submitter.MaxAttempts,
		BackoffStep: cfg.Submitter.BackoffStep,
	}
	coordinator := submitter.NewCoordinator(
		tenantStore,
		invoiceStore,
		auditStore,
		client,
		policy,
		publisher,
		log,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Facturador Service",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	routes.SetupRoutes(app, routes.Handlers{
		Health:       handlers.NewHealthHandler(db, rmq),
		Auth:         handlers.NewAuthHandler(authService, log),
		Tenants:      handlers.NewTenantsHandler(tenantStore, log),
		Submissions:  handlers.NewSubmissionsHandler(coordinator, log),
		Invoices:     handlers.NewInvoicesHandler(invoiceStore, log),
		Logs:         handlers.NewLogsHandler(auditStore, log),
		VATCondition: handlers.NewVATConditionHandler(vatService, log),
	}, authService)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		log.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
