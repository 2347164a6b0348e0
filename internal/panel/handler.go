package panel

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"minihost-license/internal/middleware"
)

// Reloader reloads the web server configuration.
type Reloader interface {
	Reload(ctx context.Context) (string, error)
}

type Handler struct {
	gate     *Gate
	settings *Settings
	reloader Reloader
}

func NewHandler(gate *Gate, settings *Settings, reloader Reloader) *Handler {
	return &Handler{gate: gate, settings: settings, reloader: reloader}
}

type ActivateInput struct {
	ServerURL  string `json:"server_url"`
	LicenseKey string `json:"license_key"`
}

// NewApp builds the panel fiber app.
func NewApp(h *Handler, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "minihost panel"})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}

	app.Get("/health", h.HandleHealth)
	app.Get("/license", h.HandleLicenseState)
	app.Post("/license/activate", h.HandleLicenseActivate)

	// Privileged operations (site creation, SSL, mail domains and
	// mailboxes) must be mounted under ops so they sit behind the gate.
	ops := app.Group("/ops", middleware.RequireLicense(h.gate))
	ops.Post("/nginx/reload", h.HandleNginxReload)

	return app
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) HandleLicenseState(c *fiber.Ctx) error {
	return c.JSON(h.gate.State(c.UserContext()))
}

// HandleLicenseActivate stores the license settings and reports the
// resulting state. Settings are kept even when the license is not valid.
func (h *Handler) HandleLicenseActivate(c *fiber.Ctx) error {
	var input ActivateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	input.ServerURL = strings.TrimSpace(input.ServerURL)
	input.LicenseKey = strings.TrimSpace(input.LicenseKey)
	if input.ServerURL == "" || input.LicenseKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "server_url and license_key are required",
		})
	}

	if err := h.settings.SetLicense(c.UserContext(), input.ServerURL, input.LicenseKey); err != nil {
		log.Error().Err(err).Msg("Failed to save license settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save license settings",
		})
	}

	st := h.gate.State(c.UserContext())
	log.Info().Str("machine_id", st.MachineID).Bool("active", st.Active).Str("message", st.Message).Msg("License settings updated")
	return c.JSON(st)
}

func (h *Handler) HandleNginxReload(c *fiber.Ctx) error {
	out, err := h.reloader.Reload(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Nginx reload failed")
		body := fiber.Map{"error": "nginx reload failed"}
		var re *ReloadError
		if errors.As(err, &re) {
			body["stderr"] = re.Stderr
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
	return c.JSON(fiber.Map{"status": "ok", "output": out})
}
