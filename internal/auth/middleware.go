package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TenantIDKey is the fiber locals key under which the middleware stores the
// authenticated tenant id.
const TenantIDKey = "tenant_id"

// Middleware returns a fiber handler that requires a valid Bearer token and
// stores the tenant id in the request locals.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header must be a Bearer token",
			})
		}

		tenantID, err := svc.VerifyToken(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(TenantIDKey, tenantID)
		return c.Next()
	}
}
