package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// LicenseChecker reports whether the panel is licensed.
type LicenseChecker interface {
	Require(ctx context.Context) error
}

// RequireLicense refuses the request with 402 unless the license is active.
func RequireLicense(gate LicenseChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := gate.Require(c.UserContext()); err != nil {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Next()
	}
}
