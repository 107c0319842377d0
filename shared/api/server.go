package api

import (
	"context"

	"podtool/internal/models"
	"podtool/shared/catalog"
	"podtool/shared/monitoring"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
)

// BatchRunner starts URL batches and reports on the latest one.
type BatchRunner interface {
	StartImport(ctx context.Context, raw string) (models.BatchSnapshot, error)
	CurrentBatch() (models.BatchSnapshot, bool)
}

// Deps holds everything the API serves from.
type Deps struct {
	Runner  BatchRunner
	Store   *catalog.Store
	Monitor *monitoring.Monitor // optional, mounts /health and /status

	// BaseContext outlives requests; background batches run on it.
	BaseContext context.Context
}

// New builds the fiber app with the middleware stack and all routes.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "podtool",
	})
	Setup(app, deps)
	return app
}

// Setup configures the middleware stack and routes on app.
func Setup(app *fiber.App, deps Deps) {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}

	app.Use(recoverer.New())
	app.Use(NewRequestLogger())

	if deps.Monitor != nil {
		deps.Monitor.Register(app)
	}

	batches := NewBatchHandler(deps.BaseContext, deps.Runner)
	cat := NewCatalogHandler(deps.Store)

	api := app.Group("/api")

	api.Post("/batches", batches.Start)
	api.Get("/batches/current", batches.Current)

	api.Get("/tools", cat.ListTools)
	api.Get("/tools/:id", cat.GetTool)
	api.Get("/episodes", cat.ListEpisodes)
	api.Get("/episodes/:id", cat.GetEpisode)
	api.Get("/dashboard", cat.Dashboard)
	api.Get("/export.md", cat.Export)
}
