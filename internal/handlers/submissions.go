package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auth"
	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
)

// SubmissionsHandler exposes the invoice submission pipeline over HTTP.
type SubmissionsHandler struct {
	Coordinator *submitter.Coordinator
	Logger      *zap.Logger
}

func NewSubmissionsHandler(coordinator *submitter.Coordinator, logger *zap.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{
		Coordinator: coordinator,
		Logger:      logger,
	}
}

// Submit handles POST /facturas. The tenant id always comes from the
// authenticated token, never from the request body.
func (h *SubmissionsHandler) Submit(c *fiber.Ctx) error {
	var req submitter.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if tenantID, ok := c.Locals(auth.TenantIDKey).(string); ok && tenantID != "" {
		req.TenantID = tenantID
	}

	invoice, err := h.Coordinator.Submit(c.Context(), &req)
	if err != nil {
		status, message := mapSubmissionError(err)
		h.Logger.Warn("Invoice submission request failed",
			zap.Int("status", status),
			zap.String("error", message),
		)
		return c.Status(status).JSON(fiber.Map{
			"error": message,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// mapSubmissionError translates the pipeline's typed errors into HTTP
// statuses: validation and permanent rejections are the client's fault,
// exhausted retries and store failures are gateway errors.
func mapSubmissionError(err error) (int, string) {
	var subErr *submitter.Error
	if !errors.As(err, &subErr) {
		return fiber.StatusInternalServerError, err.Error()
	}

	switch subErr.Kind {
	case submitter.KindValidation, submitter.KindPermanentRemote:
		return fiber.StatusBadRequest, subErr.Message
	case submitter.KindNotFound:
		return fiber.StatusNotFound, subErr.Message
	case submitter.KindTransientRemote, submitter.KindPersistence:
		return fiber.StatusBadGateway, subErr.Message
	default:
		return fiber.StatusInternalServerError, subErr.Message
	}
}
