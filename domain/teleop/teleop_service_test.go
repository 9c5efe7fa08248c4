package teleop

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/teleop-bridge/domain/tracking"
	"github.com/open-teleop/teleop-bridge/pkg/bridge"
	"github.com/open-teleop/teleop-bridge/pkg/control"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
)

type staticStats bridge.Stats

func (s staticStats) Stats() bridge.Stats { return bridge.Stats(s) }

func newTestApp(s *TeleopService) *fiber.App {
	app := fiber.New()
	app.Post("/command", s.CommandHandler)
	app.Post("/stop", s.StopHandler)
	app.Get("/status", s.StatusHandler)
	app.Put("/heading", s.HeadingHandler)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func TestValidateAxes(t *testing.T) {
	assert.NoError(t, ValidateAxes(Axes{X: 1, Y: -1, Yaw: 0}))
	assert.Error(t, ValidateAxes(Axes{X: 1.01}))
	assert.Error(t, ValidateAxes(Axes{Yaw: math.NaN()}))
	assert.Error(t, ValidateAxes(Axes{Y: math.Inf(-1)}))
}

func TestCommandAndStopHandlers(t *testing.T) {
	s := NewTeleopService(nil, nil, customlog.NewNopLogger())
	app := newTestApp(s)

	code, _ := doJSON(t, app, http.MethodPost, "/command", `{"x":0.5,"y":-0.25,"yaw":0.75}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, Axes{X: 0.5, Y: -0.25, Yaw: 0.75}, s.Axes())

	code, out := doJSON(t, app, http.MethodPost, "/command", `{"x":2}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Contains(t, out["error"], "axis x")
	assert.Equal(t, Axes{X: 0.5, Y: -0.25, Yaw: 0.75}, s.Axes())

	code, _ = doJSON(t, app, http.MethodPost, "/command", `{"x":`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = doJSON(t, app, http.MethodPost, "/stop", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "stopped", out["status"])
	assert.Equal(t, Axes{}, s.Axes())
}

func TestStatusHandler(t *testing.T) {
	stats := staticStats{SessionID: "abc", State: bridge.StateStreaming.String(), Sent: 12, Capacity: bridge.QueueCapacity}
	hold := NewHeadingHold(tracking.NewPoseService(), tracking.ClassTracker, control.NewPID(1, 0, 0, 1))
	s := NewTeleopService(stats, hold, customlog.NewNopLogger())
	require.NoError(t, s.SetAxes(Axes{X: 0.3}))

	code, out := doJSON(t, newTestApp(s), http.MethodGet, "/status", "")
	require.Equal(t, fiber.StatusOK, code)

	b := out["bridge"].(map[string]interface{})
	assert.Equal(t, "abc", b["session_id"])
	assert.Equal(t, "streaming", b["state"])
	assert.EqualValues(t, 12, b["sent"])

	axes := out["axes"].(map[string]interface{})
	assert.EqualValues(t, 0.3, axes["x"])

	heading := out["heading"].(map[string]interface{})
	assert.Equal(t, false, heading["enabled"])
	assert.Equal(t, "Tracker", heading["device_class"])
}

func TestHeadingHandler(t *testing.T) {
	hold := NewHeadingHold(tracking.NewPoseService(), tracking.ClassTracker, control.NewPID(1, 0, 0, 1))
	app := newTestApp(NewTeleopService(nil, hold, customlog.NewNopLogger()))

	code, out := doJSON(t, app, http.MethodPut, "/heading", `{"enabled":true,"target_yaw":1.25}`)
	require.Equal(t, fiber.StatusOK, code)
	heading := out["heading"].(map[string]interface{})
	assert.Equal(t, true, heading["enabled"])
	assert.EqualValues(t, 1.25, heading["target_yaw"])
	assert.True(t, hold.State().Enabled)

	code, _ = doJSON(t, app, http.MethodPut, "/heading", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = doJSON(t, newTestApp(NewTeleopService(nil, nil, customlog.NewNopLogger())), http.MethodPut, "/heading", `{"enabled":true}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
}
