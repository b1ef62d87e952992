package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auditlog"
	"github.com/juansemartinez01/API-FACTURACION/internal/auth"
)

// LogsHandler serves the operator view over the submission audit trail.
type LogsHandler struct {
	Store  *auditlog.Store
	Logger *zap.Logger
}

func NewLogsHandler(store *auditlog.Store, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{
		Store:  store,
		Logger: logger,
	}
}

// GetLogs handles GET /factura-logs. The tenant scope comes from the
// authenticated token; every other filter is an optional query parameter
// (original parameter names kept for client compatibility: cuit,
// punto_venta, factura_tipo, has_factura, attemptsMin/Max, minImporte/
// maxImporte, from, to, search, sortBy, sortDir, page, pageSize).
func (h *LogsHandler) GetLogs(c *fiber.Ctx) error {
	tenantStr, _ := c.Locals(auth.TenantIDKey).(string)
	if tenantStr == "" {
		tenantStr = c.Query("tenantId")
	}
	if tenantStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tenant id is required",
		})
	}
	tenantID, err := uuid.Parse(tenantStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tenant id is not a valid UUID",
		})
	}

	filter := auditlog.ListFilter{
		TenantID:          tenantID,
		Status:            c.Query("status"),
		IssuerTaxID:       c.Query("cuit"),
		PointOfSale:       queryInt(c, "punto_venta"),
		DocumentType:      queryInt(c, "factura_tipo"),
		HasInvoice:        queryBool(c, "has_factura"),
		Email:             c.Query("email"),
		UsedPasswordLogin: queryBool(c, "used_password_login"),
		AttemptsMin:       queryInt(c, "attemptsMin"),
		AttemptsMax:       queryInt(c, "attemptsMax"),
		Search:            c.Query("search"),
		From:              c.Query("from"),
		To:                c.Query("to"),
		MinAmount:         queryFloat(c, "minImporte"),
		MaxAmount:         queryFloat(c, "maxImporte"),
		SortBy:            c.Query("sortBy"),
		SortDir:           c.Query("sortDir"),
		Page:              c.QueryInt("page", 1),
		PageSize:          c.QueryInt("pageSize", 0),
	}

	result, err := h.Store.List(c.Context(), filter)
	if err != nil {
		h.Logger.Error("Failed to list submission logs",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch submission logs",
		})
	}

	return c.JSON(result)
}

func queryInt(c *fiber.Ctx, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func queryFloat(c *fiber.Ctx, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(c *fiber.Ctx, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
