package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAPIToken is the shared admin secret used when none is configured.
const DefaultAPIToken = "change-me"

// Server holds the license server settings.
type Server struct {
	Listen       string        `envconfig:"LISTEN" default:":8000"`
	DBDriver     string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN        string        `envconfig:"DB_DSN" default:"data/license.db"`
	APIToken     string        `envconfig:"API_TOKEN" default:"change-me"`
	APITokenHash string        `envconfig:"API_TOKEN_HASH"`
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	JWTTTL       time.Duration `envconfig:"JWT_TTL" default:"12h"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	Sheets       Sheets        `envconfig:"SHEETS"`
}

// Sheets configures the optional spreadsheet mirror of license rows.
type Sheets struct {
	Enabled       bool   `envconfig:"ENABLED" default:"false"`
	Credentials   string `envconfig:"CREDENTIALS"`
	SpreadsheetID string `envconfig:"SPREADSHEET_ID"`
	SheetName     string `envconfig:"NAME" default:"Licenses"`
}

// Panel holds the control panel settings.
type Panel struct {
	Listen           string        `envconfig:"LISTEN" default:":8080"`
	DBPath           string        `envconfig:"DB_PATH" default:"data/panel.db"`
	ServerIP         string        `envconfig:"SERVER_IP" default:"127.0.0.1"`
	LicenseServerURL string        `envconfig:"LICENSE_SERVER_URL"`
	LicenseKey       string        `envconfig:"LICENSE_KEY"`
	LicenseTimeout   time.Duration `envconfig:"LICENSE_TIMEOUT" default:"5s"`
	ReloadCommand    string        `envconfig:"RELOAD_COMMAND" default:"nginx -t && systemctl reload nginx"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadServer reads an optional .env file and then the LICENSE_* environment.
func LoadServer() (*Server, error) {
	loadDotEnv()

	var cfg Server
	if err := envconfig.Process("LICENSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPanel reads an optional .env file and then the PANEL_* environment.
// LICENSE_SERVER_URL and LICENSE_KEY are honoured without the prefix too.
func LoadPanel() (*Panel, error) {
	loadDotEnv()

	var cfg Panel
	if err := envconfig.Process("PANEL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load panel config from env: %w", err)
	}
	if cfg.LicenseServerURL == "" {
		cfg.LicenseServerURL = os.Getenv("LICENSE_SERVER_URL")
	}
	if cfg.LicenseKey == "" {
		cfg.LicenseKey = os.Getenv("LICENSE_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Server) Validate() error {
	var errs []error
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("db dsn is required"))
	}
	if c.APIToken == "" && c.APITokenHash == "" {
		errs = append(errs, errors.New("api token or api token hash is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("jwt ttl must be positive"))
	}
	if c.Sheets.Enabled && (c.Sheets.Credentials == "" || c.Sheets.SpreadsheetID == "") {
		errs = append(errs, errors.New("sheets mirror needs credentials and spreadsheet id"))
	}
	return errors.Join(errs...)
}

// UsesDefaultToken is true when the admin secret was left at its default.
func (c *Server) UsesDefaultToken() bool {
	return c.APITokenHash == "" && c.APIToken == DefaultAPIToken
}

// Validate reports settings the panel cannot start with.
func (c *Panel) Validate() error {
	if c.LicenseTimeout <= 0 {
		return errors.New("license timeout must be positive")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("panel db path is required")
	}
	return nil
}

func loadDotEnv() {
	// a missing .env is the normal case
	_ = godotenv.Load()
}
