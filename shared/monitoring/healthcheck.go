package monitoring

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// Register mounts /health and /status on router.
func (m *Monitor) Register(router fiber.Router) {
	router.Get("/health", m.healthHandler)
	router.Get("/status", m.statusHandler)
}

func (m *Monitor) healthHandler(c fiber.Ctx) error {
	if m.IsHealthy() {
		return c.Status(fiber.StatusOK).SendString(fmt.Sprintf("OK - %s", m.GetStatusSummary()))
	}
	return c.Status(fiber.StatusServiceUnavailable).SendString(fmt.Sprintf("Service unhealthy - %s", m.GetStatusSummary()))
}

func (m *Monitor) statusHandler(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(m.GetStatusSummary())
}
