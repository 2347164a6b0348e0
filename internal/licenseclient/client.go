// Package licenseclient calls the license server's validate endpoint on
// behalf of the panel. Every failure is reported as not valid.
package licenseclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 1 << 20 // 1 MB
	validatePath     = "/api/v1/validate"
)

// Config names the license to check and the machine asking.
type Config struct {
	ServerURL  string
	LicenseKey string
	MachineID  string
}

// Result is the validator's verdict. Err is set when the license server
// could not be reached or answered garbage; Valid is then always false.
type Result struct {
	Valid   bool
	Message string
	Err     error
}

// Client validates licenses against a license server.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. The client is copied; the copy's
// Timeout comes from WithTimeout (or the default 5s).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Client) {
		o.httpClient = c
	}
}

// WithTimeout bounds each validate call. Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *Client) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *Client) {
		o.userAgent = ua
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		timeout:   defaultTimeout,
		userAgent: "minihost-panel/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := &http.Client{}
	if c.httpClient != nil {
		copied := *c.httpClient
		hc = &copied
	}
	hc.Timeout = c.timeout
	c.httpClient = hc
	return c
}

// BuildMachineID joins hostname and ip as "<hostname>:<ip>". The result is
// trimmed; case and inner whitespace are kept as given.
func BuildMachineID(hostname, ip string) string {
	return strings.TrimSpace(hostname + ":" + ip)
}

type validateRequest struct {
	LicenseKey string `json:"license_key"`
	MachineID  string `json:"machine_id"`
}

type validateResponse struct {
	Valid   *bool  `json:"valid"`
	Message string `json:"message"`
}

// Validate asks the server whether cfg.LicenseKey is valid for
// cfg.MachineID. It never retries and fails closed.
func (c *Client) Validate(ctx context.Context, cfg Config) Result {
	resp, err := c.post(ctx, cfg)
	if err != nil {
		return Result{Valid: false, Message: fmt.Sprintf("license server error: %v", err), Err: err}
	}

	if resp.Valid != nil && *resp.Valid {
		msg := resp.Message
		if msg == "" {
			msg = "ok"
		}
		return Result{Valid: true, Message: msg}
	}
	msg := resp.Message
	if msg == "" {
		msg = "license is not valid"
	}
	return Result{Valid: false, Message: msg}
}

func (c *Client) post(ctx context.Context, cfg Config) (*validateResponse, error) {
	payload, err := json.Marshal(validateRequest{LicenseKey: cfg.LicenseKey, MachineID: cfg.MachineID})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(cfg.ServerURL, "/") + validatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out validateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
