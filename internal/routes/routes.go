package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/juansemartinez01/API-FACTURACION/internal/auth"
	"github.com/juansemartinez01/API-FACTURACION/internal/handlers"
)

// Handlers bundles the HTTP handlers wired at startup.
type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tenants      *handlers.TenantsHandler
	Submissions  *handlers.SubmissionsHandler
	Invoices     *handlers.InvoicesHandler
	Logs         *handlers.LogsHandler
	VATCondition *handlers.VATConditionHandler
}

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, h Handlers, authService *auth.Service) {
	// Health check endpoint
	app.Get("/health", h.Health.Check)

	// API v1 routes
	api := app.Group("/api/v1")

	api.Post("/auth/login", h.Auth.Login)
	api.Post("/tenants", h.Tenants.Register)
	api.Post("/condicion-iva", h.VATCondition.Check)

	// Everything below requires an authenticated tenant
	guarded := api.Group("", auth.Middleware(authService))
	guarded.Post("/facturas", h.Submissions.Submit)
	guarded.Get("/facturas", h.Invoices.List)
	guarded.Get("/facturas/:id", h.Invoices.Get)
	guarded.Get("/factura-logs", h.Logs.GetLogs)
}
