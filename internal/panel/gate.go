// Package panel holds the control panel side of licensing: the settings
// table, the license gate in front of privileged operations, and the
// panel's HTTP routes.
package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"minihost-license/internal/config"
	"minihost-license/internal/licenseclient"
)

// ErrLicenseInactive is wrapped by Gate.Require when the panel is not licensed.
var ErrLicenseInactive = errors.New("license not active")

const msgNotConfigured = "license not configured"

// Validator checks a license against the license server.
type Validator interface {
	Validate(ctx context.Context, cfg licenseclient.Config) licenseclient.Result
}

// State is the panel's current license standing.
type State struct {
	Active     bool   `json:"active"`
	Message    string `json:"message"`
	ServerURL  string `json:"server_url"`
	LicenseKey string `json:"license_key"`
	MachineID  string `json:"machine_id"`
}

// Gate decides whether privileged panel operations may run.
type Gate struct {
	settings  *Settings
	validator Validator
	serverURL string
	key       string
	serverIP  string
	hostname  func() (string, error)
}

// NewGate builds a gate. Settings take precedence over cfg.
func NewGate(cfg config.Panel, settings *Settings, validator Validator) *Gate {
	return &Gate{
		settings:  settings,
		validator: validator,
		serverURL: cfg.LicenseServerURL,
		key:       cfg.LicenseKey,
		serverIP:  cfg.ServerIP,
		hostname:  os.Hostname,
	}
}

// MachineID is "<hostname>:<server ip>".
func (g *Gate) MachineID() string {
	host, err := g.hostname()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read hostname")
	}
	return licenseclient.BuildMachineID(host, g.serverIP)
}

// State asks the license server about the configured license. Nothing is
// sent when the server URL or key is missing.
func (g *Gate) State(ctx context.Context) State {
	st := State{MachineID: g.MachineID()}

	serverURL, key, err := g.resolve(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read license settings")
		st.Message = fmt.Sprintf("license settings error: %v", err)
		return st
	}
	st.ServerURL, st.LicenseKey = serverURL, key
	if serverURL == "" || key == "" {
		st.Message = msgNotConfigured
		return st
	}

	res := g.validator.Validate(ctx, licenseclient.Config{
		ServerURL:  serverURL,
		LicenseKey: key,
		MachineID:  st.MachineID,
	})
	if res.Err != nil {
		log.Warn().Err(res.Err).Str("server", serverURL).Msg("License check failed")
	}
	st.Active, st.Message = res.Valid, res.Message
	return st
}

// Require returns nil when the license is active.
func (g *Gate) Require(ctx context.Context) error {
	st := g.State(ctx)
	if !st.Active {
		return fmt.Errorf("%w: %s", ErrLicenseInactive, st.Message)
	}
	return nil
}

func (g *Gate) resolve(ctx context.Context) (string, string, error) {
	serverURL, key := g.serverURL, g.key
	if g.settings == nil {
		return strings.TrimSpace(serverURL), strings.TrimSpace(key), nil
	}

	if v, ok, err := g.settings.Get(ctx, SettingLicenseServerURL); err != nil {
		return "", "", err
	} else if ok && strings.TrimSpace(v) != "" {
		serverURL = v
	}
	if v, ok, err := g.settings.Get(ctx, SettingLicenseKey); err != nil {
		return "", "", err
	} else if ok && strings.TrimSpace(v) != "" {
		key = v
	}
	return strings.TrimSpace(serverURL), strings.TrimSpace(key), nil
}
