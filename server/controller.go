package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/poiesic/oneiro/core"
)

const submitMessage = "Your dream has been received and queued for interpretation."

type dreamController struct {
	interpreter Interpreter
	logger      *slog.Logger
}

func newDreamController(interpreter Interpreter, logger *slog.Logger) *dreamController {
	return &dreamController{interpreter: interpreter, logger: logger}
}

func (c *dreamController) RegisterRoutes(r fiber.Router) {
	r.Post("/submit", c.Submit)
	r.Get("/results", c.Results)
	r.Get("/health", c.Health)
}

func (c *dreamController) Submit(ctx *fiber.Ctx) error {
	if !ctx.Is("json") {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "request body must be JSON"})
	}

	var req SubmitRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid JSON body"})
	}
	if err := core.ValidateNarrative(req.Narrative); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "'narrative' is missing, empty or not text"})
	}

	status := c.interpreter.Enqueue(req.Narrative)
	c.logger.Info("narrative submitted", "status", status.String(), "length", len(req.Narrative))
	return ctx.JSON(SubmitResponse{Status: status.String(), Message: submitMessage})
}

func (c *dreamController) Results(ctx *fiber.Ctx) error {
	results := c.interpreter.Drain()
	out := make([]ResultResponse, len(results))
	for i, r := range results {
		out[i] = ResultResponse{Narrative: r.Narrative, Interpretation: r.Interpretation}
	}
	if len(out) > 0 {
		c.logger.Info("results drained", "count", len(out))
	}
	return ctx.JSON(out)
}

func (c *dreamController) Health(ctx *fiber.Ctx) error {
	stats := c.interpreter.Stats()
	return ctx.JSON(HealthResponse{
		Status:             "healthy",
		Timestamp:          time.Now().Format(time.DateTime),
		QueueSize:          stats.QueueDepth,
		UnreadResults:      stats.UnreadResults,
		ActiveBackends:     stats.ActiveBackends,
		ActiveSessionPairs: stats.ActiveSessionPairs,
	})
}
