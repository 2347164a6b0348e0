package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"minihost-license/internal/middleware"
	"minihost-license/internal/service"
	"minihost-license/internal/store"
)

type AppOptions struct {
	// AccessLog enables fiber's request logger.
	AccessLog bool
	// Gatherer backs GET /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewApp builds the license server fiber app with every route mounted.
func NewApp(h *Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "minihost license server",
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New())

	app.Get("/health", HandleHealth)
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")
	api.Post("/issue", h.HandleLicenseIssue)
	api.Post("/revoke", h.HandleLicenseRevoke)
	api.Post("/validate", h.HandleLicenseValidate)
	api.Post("/generate", h.HandleLicenseGenerate)
	api.Post("/auth/token", h.HandleAuthToken)

	// admin session routes
	auth := middleware.Auth(h.tokens)
	api.Get("/licenses", auth, h.HandleGetAllLicenses)
	api.Get("/licenses/:key", auth, h.HandleGetLicense)
	api.Get("/statistics", auth, h.HandleLicenseStatistics)
	api.Get("/logs", auth, h.HandleGetLogs)

	return app
}

// ErrorHandler maps service and store errors to status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	case errors.Is(err, service.ErrForbidden):
		code, message = fiber.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrUnauthorized):
		code, message = fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrInvalidInput):
		code, message = fiber.StatusBadRequest, "invalid input"
	case errors.Is(err, store.ErrNotFound):
		code, message = fiber.StatusNotFound, store.ErrNotFound.Error()
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
