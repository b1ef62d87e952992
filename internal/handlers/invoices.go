package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auth"
	"github.com/juansemartinez01/API-FACTURACION/internal/invoices"
)

// InvoicesHandler exposes read access to invoices already granted by the
// remote authority.
type InvoicesHandler struct {
	Store  *invoices.Store
	Logger *zap.Logger
}

func NewInvoicesHandler(store *invoices.Store, logger *zap.Logger) *InvoicesHandler {
	return &InvoicesHandler{
		Store:  store,
		Logger: logger,
	}
}

// List handles GET /facturas, scoped to the authenticated tenant.
func (h *InvoicesHandler) List(c *fiber.Ctx) error {
	tenantID, err := tenantFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	items, err := h.Store.FindAllByTenant(c.Context(), tenantID)
	if err != nil {
		h.Logger.Error("Failed to list invoices",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch invoices",
		})
	}

	return c.JSON(items)
}

// Get handles GET /facturas/:id.
func (h *InvoicesHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invoice id is not a valid UUID",
		})
	}

	invoice, err := h.Store.FindByID(c.Context(), id)
	if err != nil {
		h.Logger.Error("Failed to fetch invoice",
			zap.String("invoice_id", id.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch invoice",
		})
	}
	if invoice == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "invoice not found",
		})
	}

	return c.JSON(invoice)
}

func tenantFromLocals(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals(auth.TenantIDKey).(string)
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "tenant id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "tenant id is not a valid UUID")
	}
	return id, nil
}
