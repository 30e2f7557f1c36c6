package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"scam-honeypot/internal/usecase"
)

// NewApp serves the same routes as Handle over HTTP. Routes other than
// /health are limited to maxRequests per window per client IP.
func NewApp(h *Handler, window time.Duration, maxRequests int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		BodyLimit:             1 << 20,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
	})

	app.Use(correlation)
	if maxRequests > 0 && window > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        maxRequests,
			Expiration: window,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/health"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(http.StatusTooManyRequests).JSON(errorResponse{
					Error:   codeRateLimited,
					Message: "Too many requests, please try again later.",
				})
			},
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return send(c, h.health())
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return send(c, h.index())
	})

	message := func(c *fiber.Ctx) error {
		return send(c, h.postMessage(c.UserContext(), c.Get(headerAPIKey), c.Body()))
	}
	app.Post("/", message)
	app.Post("/message", message)
	app.Post("/api/message", message)

	app.Get("/api/conversation/:id", func(c *fiber.Ctx) error {
		return send(c, h.getConversation(c.Get(headerAPIKey), strings.Clone(c.Params("id"))))
	})
	app.Get("/api/stats", func(c *fiber.Ctx) error {
		return send(c, h.getStats(c.Get(headerAPIKey)))
	})

	app.Use(func(c *fiber.Ctx) error {
		return send(c, notFound())
	})
	return app
}

func correlation(c *fiber.Ctx) error {
	id := c.Get(headerCorrelationID)
	if id == "" {
		id = newCorrelationID()
	}
	c.Set(headerCorrelationID, id)

	start := time.Now()
	err := c.Next()
	slog.Info("request completed",
		"correlation_id", id,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func send(c *fiber.Ctx, r reply) error {
	if err := c.Status(r.status).JSON(r.body); err != nil {
		slog.Error("write response", "err", err)
		return c.Status(http.StatusInternalServerError).JSON(errorResponse{
			Error:   string(usecase.ErrorInternal),
			Message: "An unexpected error occurred",
		})
	}
	return nil
}
