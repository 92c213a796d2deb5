package middleware

import (
	"strings"

	bcryptPkg "github.com/brightpath/tutoring-backend/pkg/bcrypt"
	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware guards the scheduler/back-office routes with a static
// bearer token. Only the bcrypt hash of the token lives in configuration.
func AdminMiddleware(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenHash == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Admin access is not configured",
			})
		}

		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid authorization header format",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if err := bcryptPkg.CompareSecret(tokenHash, token); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid admin token",
			})
		}

		return c.Next()
	}
}
