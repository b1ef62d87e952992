package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
	"github.com/juansemartinez01/API-FACTURACION/internal/vatcondition"
)

// VATConditionHandler proxies VAT-condition lookups against the registry.
type VATConditionHandler struct {
	Service *vatcondition.Service
	Logger  *zap.Logger
}

func NewVATConditionHandler(service *vatcondition.Service, logger *zap.Logger) *VATConditionHandler {
	return &VATConditionHandler{
		Service: service,
		Logger:  logger,
	}
}

// Check handles POST /condicion-iva.
func (h *VATConditionHandler) Check(c *fiber.Ctx) error {
	var req vatcondition.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := h.Service.Check(c.Context(), req)
	if err != nil {
		var serr *submitter.Error
		if errors.As(err, &serr) {
			switch serr.Kind {
			case submitter.KindValidation, submitter.KindPermanentRemote:
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": serr.Message,
				})
			case submitter.KindTransientRemote:
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
					"error": serr.Message,
				})
			}
		}
		h.Logger.Error("VAT condition lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to check VAT condition",
		})
	}

	return c.JSON(resp)
}
