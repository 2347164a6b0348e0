package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator checks an admin session token.
type TokenValidator interface {
	ValidateToken(raw string) error
}

// Auth requires a valid "Authorization: Bearer <token>" header.
func Auth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authorization header",
			})
		}

		if err := tokens.ValidateToken(tokenParts[1]); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals("admin", true)
		return c.Next()
	}
}
