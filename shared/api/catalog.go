package api

import (
	"time"

	"podtool/internal/models"
	"podtool/shared/catalog"

	"github.com/gofiber/fiber/v3"
)

const (
	dashboardTopTools       = 5
	dashboardRecentEpisodes = 8
)

// Dashboard is the landing view of the catalog.
type Dashboard struct {
	Stats          models.CatalogStats `json:"stats"`
	TopTools       []models.RankedTool `json:"topTools"`
	RecentEpisodes []models.Episode    `json:"recentEpisodes"`
}

type CatalogHandler struct {
	store *catalog.Store
	now   func() time.Time
}

func NewCatalogHandler(store *catalog.Store) *CatalogHandler {
	return &CatalogHandler{store: store, now: time.Now}
}

// ListTools handles GET /api/tools
func (h *CatalogHandler) ListTools(c fiber.Ctx) error {
	return c.JSON(h.store.Ranked())
}

// GetTool handles GET /api/tools/:id
func (h *CatalogHandler) GetTool(c fiber.Ctx) error {
	view, ok := h.store.Tool(c.Params("id"))
	if !ok {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Tool not found")
	}
	return c.JSON(view)
}

// ListEpisodes handles GET /api/episodes
func (h *CatalogHandler) ListEpisodes(c fiber.Ctx) error {
	return c.JSON(h.store.Episodes())
}

// GetEpisode handles GET /api/episodes/:id
func (h *CatalogHandler) GetEpisode(c fiber.Ctx) error {
	view, ok := h.store.Episode(c.Params("id"))
	if !ok {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Episode not found")
	}
	return c.JSON(view)
}

// Dashboard handles GET /api/dashboard
func (h *CatalogHandler) Dashboard(c fiber.Ctx) error {
	ranked := h.store.Ranked()
	if len(ranked) > dashboardTopTools {
		ranked = ranked[:dashboardTopTools]
	}
	episodes := h.store.Episodes()
	if len(episodes) > dashboardRecentEpisodes {
		episodes = episodes[:dashboardRecentEpisodes]
	}
	return c.JSON(Dashboard{
		Stats:          h.store.Stats(),
		TopTools:       ranked,
		RecentEpisodes: episodes,
	})
}

// Export handles GET /api/export.md
// Serves the markdown leaderboard as a dated attachment.
func (h *CatalogHandler) Export(c fiber.Ctx) error {
	ranked := h.store.Ranked()
	if len(ranked) == 0 {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No tools to export yet")
	}

	c.Attachment(catalog.ExportFileName(h.now()))
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.SendString(catalog.Markdown(ranked))
}
