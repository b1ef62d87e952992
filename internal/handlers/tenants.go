package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/tenants"
)

// TenantsHandler manages tenant registration.
type TenantsHandler struct {
	Store  *tenants.Store
	Logger *zap.Logger
}

func NewTenantsHandler(store *tenants.Store, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{
		Store:  store,
		Logger: logger,
	}
}

// Register handles POST /tenants.
func (h *TenantsHandler) Register(c *fiber.Ctx) error {
	var input tenants.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	tenant, err := h.Store.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, tenants.ErrCUITTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a tenant with that CUIT already exists",
			})
		}
		var verr *tenants.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Error(),
			})
		}
		h.Logger.Error("Failed to register tenant", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to register tenant",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(tenant)
}
