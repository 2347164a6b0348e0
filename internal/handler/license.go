package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"minihost-license/internal/model"
	"minihost-license/internal/service"
)

// Handler serves the license server API.
type Handler struct {
	licenses *service.LicenseService
	audit    *service.AuditLog
	tokens   *service.TokenIssuer
}

func New(licenses *service.LicenseService, audit *service.AuditLog, tokens *service.TokenIssuer) *Handler {
	return &Handler{licenses: licenses, audit: audit, tokens: tokens}
}

// IssueInput is the body of issue, revoke and generate. api_token is the
// older name of admin_token.
type IssueInput struct {
	AdminToken     string `json:"admin_token"`
	APIToken       string `json:"api_token"`
	LicenseKey     string `json:"license_key"`
	MaxActivations *int   `json:"max_activations"`
}

func (in IssueInput) token() string {
	if in.AdminToken != "" {
		return in.AdminToken
	}
	return in.APIToken
}

func (in IssueInput) maxActivations() int {
	if in.MaxActivations == nil {
		return 1
	}
	return *in.MaxActivations
}

type ValidateInput struct {
	LicenseKey string `json:"license_key"`
	MachineID  string `json:"machine_id"`
}

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleLicenseIssue creates or re-issues a license.
func (h *Handler) HandleLicenseIssue(c *fiber.Ctx) error {
	input := new(IssueInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input data",
		})
	}

	err := h.licenses.Issue(c.UserContext(), input.token(), input.LicenseKey, input.maxActivations())
	h.logOperation(c, "issue", input.LicenseKey, err, fiber.Map{"max_activations": input.maxActivations()})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":      "ok",
		"license_key": strings.TrimSpace(input.LicenseKey),
	})
}

// HandleLicenseRevoke revokes a license. Unknown keys succeed.
func (h *Handler) HandleLicenseRevoke(c *fiber.Ctx) error {
	input := new(IssueInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input data",
		})
	}

	err := h.licenses.Revoke(c.UserContext(), input.token(), input.LicenseKey)
	h.logOperation(c, "revoke", input.LicenseKey, err, nil)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleLicenseGenerate issues a license under a freshly generated key.
func (h *Handler) HandleLicenseGenerate(c *fiber.Ctx) error {
	input := new(IssueInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input data",
		})
	}

	key, err := h.licenses.Generate(c.UserContext(), input.token(), input.maxActivations())
	h.logOperation(c, "generate", key, err, fiber.Map{"max_activations": input.maxActivations()})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":      "ok",
		"license_key": key,
	})
}

// HandleLicenseValidate answers 200 with {valid, message} for every
// well-formed request; validity is never expressed in the status code.
func (h *Handler) HandleLicenseValidate(c *fiber.Ctx) error {
	input := new(ValidateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input data",
		})
	}

	input.LicenseKey = strings.TrimSpace(input.LicenseKey)
	input.MachineID = strings.TrimSpace(input.MachineID)

	res, err := h.licenses.Validate(c.UserContext(), input.LicenseKey, input.MachineID)
	if err != nil {
		return err
	}

	if h.audit != nil {
		if err := h.audit.LogValidation(c.UserContext(), input.LicenseKey, input.MachineID, res, c.IP(), c.Get(fiber.HeaderUserAgent)); err != nil {
			log.Warn().Err(err).Str("license_key", input.LicenseKey).Msg("record validation")
		}
	}

	return c.JSON(res)
}

// HandleGetAllLicenses lists every license with its activation count.
func (h *Handler) HandleGetAllLicenses(c *fiber.Ctx) error {
	licenses, err := h.licenses.ListLicenses(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"licenses": licenses,
	})
}

// HandleGetLicense returns one license, its activations and its most
// recent validations.
func (h *Handler) HandleGetLicense(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "license key is required",
		})
	}

	detail, err := h.licenses.GetLicense(c.UserContext(), key)
	if err != nil {
		return err
	}

	usages := []model.ValidationLog{}
	if h.audit != nil {
		limit, _ := strconv.Atoi(c.Query("usage_limit", "20"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		usages, err = h.audit.GetValidationLogs(c.UserContext(), detail.License.Key, limit)
		if err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"license":     detail.License,
		"activations": detail.Activations,
		"usages":      usages,
	})
}

// HandleAuthToken exchanges the admin secret for a session token.
func (h *Handler) HandleAuthToken(c *fiber.Ctx) error {
	input := new(IssueInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input data",
		})
	}

	if err := h.licenses.Authenticate(input.token()); err != nil {
		h.logOperation(c, "login", "", err, nil)
		return err
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return err
	}
	h.logOperation(c, "login", "", nil, nil)

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *Handler) logOperation(c *fiber.Ctx, action, target string, opErr error, details interface{}) {
	if h.audit == nil {
		return
	}
	result := "ok"
	if opErr != nil {
		result = opErr.Error()
	}
	if err := h.audit.LogOperation(c.UserContext(), action, target, result, c.IP(), details); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("record operation")
	}
}
