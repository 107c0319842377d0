package monitoring

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor()
	assert.True(t, m.IsHealthy())
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	m.RecordSuccess("3 episodes imported", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "3 episodes imported")

	m.RecordPartialFailure(errors.New("feed down"), time.Second)
	assert.True(t, m.IsHealthy(), "partial failures keep the service healthy")

	m.RecordCriticalFailure(errors.New("quota exhausted"), time.Second)
	assert.False(t, m.IsHealthy())
	assert.Contains(t, m.GetStatusSummary(), "quota exhausted")

	total, failed := m.Runs()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)

	m.RecordSuccess("recovered", time.Second)
	assert.True(t, m.IsHealthy())
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthHandlers(t *testing.T) {
	m := NewMonitor()
	app := fiber.New()
	m.Register(app)

	code, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK - No runs yet", body)

	m.RecordCriticalFailure(errors.New("boom"), time.Second)
	code, body = get(t, app, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "Service unhealthy")

	code, body = get(t, app, "/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Last run failed")
}
