package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// statusCoder is implemented by errors that know their HTTP status.
type statusCoder interface {
	StatusCode() int
}

type startRequest struct {
	URLs string `json:"urls"`
}

type BatchHandler struct {
	ctx    context.Context
	runner BatchRunner
}

func NewBatchHandler(ctx context.Context, runner BatchRunner) *BatchHandler {
	return &BatchHandler{ctx: ctx, runner: runner}
}

// Start handles POST /api/batches
// The body is either {"urls": "..."} or a plain text list, one URL per line.
func (h *BatchHandler) Start(c fiber.Ctx) error {
	raw := string(c.Body())
	if c.Is("json") {
		var req startRequest
		if err := c.Bind().JSON(&req); err != nil {
			return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		}
		raw = req.URLs
	}

	snapshot, err := h.runner.StartImport(h.ctx, raw)
	if err != nil {
		var sc statusCoder
		if errors.As(err, &sc) {
			switch sc.StatusCode() {
			case fiber.StatusBadRequest:
				return ErrorResponse(c, fiber.StatusBadRequest, "INVALID_URLS", err.Error())
			case fiber.StatusConflict:
				return ErrorResponse(c, fiber.StatusConflict, "BATCH_IN_PROGRESS", err.Error())
			}
		}
		log.Error().Err(err).Msg("Failed to start batch")
		return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start batch")
	}

	return c.Status(fiber.StatusAccepted).JSON(snapshot)
}

// Current handles GET /api/batches/current
func (h *BatchHandler) Current(c fiber.Ctx) error {
	snapshot, ok := h.runner.CurrentBatch()
	if !ok {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No batch has been started")
	}
	return c.JSON(snapshot)
}
