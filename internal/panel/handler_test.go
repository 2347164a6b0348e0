package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minihost-license/internal/config"
	"minihost-license/internal/licenseclient"
)

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(context.Context) (string, error) {
	f.calls++
	return "ok", f.err
}

func newPanelApp(t *testing.T, v *fakeValidator, r Reloader) *fiber.App {
	t.Helper()
	g, settings := newTestGate(t, config.Panel{ServerIP: "10.0.0.5"}, v)
	return NewApp(NewHandler(g, settings, r), false)
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestPanelReloadRequiresLicense(t *testing.T) {
	v := &fakeValidator{}
	r := &fakeReloader{}
	app := newPanelApp(t, v, r)

	status, body := call(t, app, http.MethodPost, "/ops/nginx/reload", nil)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "license not active: license not configured", body["error"])
	assert.Zero(t, r.calls)
	assert.Zero(t, v.callCount())
}

func TestPanelActivateThenReload(t *testing.T) {
	v := &fakeValidator{result: licenseclient.Result{Valid: true, Message: "license active"}}
	r := &fakeReloader{}
	app := newPanelApp(t, v, r)

	status, body := call(t, app, http.MethodPost, "/license/activate", ActivateInput{ServerURL: " https://lic ", LicenseKey: "KEY"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "https://lic", body["server_url"])
	assert.Equal(t, "web01:10.0.0.5", body["machine_id"])

	status, body = call(t, app, http.MethodGet, "/license", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "license active", body["message"])

	status, body = call(t, app, http.MethodPost, "/ops/nginx/reload", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1, r.calls)
}

func TestPanelReloadFailure(t *testing.T) {
	v := &fakeValidator{result: licenseclient.Result{Valid: true}}
	app := newPanelApp(t, v, NewCommandReloader("echo 'nginx: bad' >&2; exit 1", 0))

	status, _ := call(t, app, http.MethodPost, "/license/activate", ActivateInput{ServerURL: "https://lic", LicenseKey: "KEY"})
	require.Equal(t, http.StatusOK, status)

	status, body := call(t, app, http.MethodPost, "/ops/nginx/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "nginx: bad", body["stderr"])
}

func TestPanelActivateBadRequest(t *testing.T) {
	app := newPanelApp(t, &fakeValidator{}, &fakeReloader{})

	status, _ := call(t, app, http.MethodPost, "/license/activate", ActivateInput{ServerURL: "https://lic"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := call(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestPanelOpsGroupGatesLaterRoutes(t *testing.T) {
	app := newPanelApp(t, &fakeValidator{}, &fakeReloader{})

	called := false
	app.Post("/ops/sites", func(c *fiber.Ctx) error {
		called = true
		return c.SendStatus(fiber.StatusCreated)
	})

	status, body := call(t, app, http.MethodPost, "/ops/sites", nil)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "license not active: license not configured", body["error"])
	assert.False(t, called)
}
