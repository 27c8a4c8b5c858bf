// Package http exposes the running match to remote spectators
package http

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"chessmatch/internal/board"
	"chessmatch/internal/core"
	"chessmatch/internal/feed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// StopFunc asks the match to stop. It reports false when nothing is running.
type StopFunc func(reason string) bool

type HTTPHandler struct {
	feed *feed.Feed
	stop StopFunc
}

func NewHTTPHandler(f *feed.Feed, stop StopFunc) *HTTPHandler {
	return &HTTPHandler{feed: f, stop: stop}
}

func NewFiberApp(f *feed.Feed, stop StopFunc) *fiber.App {
	h := NewHTTPHandler(f, stop)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          feed.WaitTimeout + 5*time.Second,
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: log.Writer(),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Use(limiter.New(limiter.Config{
		Max:        rateLimitRate,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrCodeRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", rateLimitRate),
			})
		},
	}))
	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Get("/match", h.GetMatch)
	api.Get("/match/board", h.GetBoard)
	api.Post("/match/stop", h.StopMatch)

	return app
}

// contentTypeValidator ensures POST requests carry JSON
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrCodeInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrCodeInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			response.Code = core.ErrCodeNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrCodeInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrCodeRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// GetMatch returns the latest snapshot. With wait=true it long-polls until
// the move count differs from moveCount or the match ends.
func (h *HTTPHandler) GetMatch(c *fiber.Ctx) error {
	if c.Query("wait", "false") != "true" {
		s, ok := h.feed.Latest()
		if !ok {
			return notStarted(c)
		}
		return c.JSON(s)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid moveCount",
			Code:    core.ErrCodeInvalidRequest,
			Details: err.Error(),
		})
	}

	s, ok := h.feed.Wait(c.Context(), moveCount)
	if !ok {
		return notStarted(c)
	}
	return c.JSON(s)
}

// GetBoard renders the current position as text
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	s, ok := h.feed.Latest()
	if !ok {
		return notStarted(c)
	}

	b, err := board.ParseFEN(s.FEN)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "corrupt position",
			Code:    core.ErrCodeInternalError,
			Details: err.Error(),
		})
	}

	return c.JSON(BoardResponse{FEN: s.FEN, Board: b.ToASCII()})
}

// StopMatch aborts the running match
func (h *HTTPHandler) StopMatch(c *fiber.Ctx) error {
	req, ok := c.Locals("validatedBody").(*StopRequest)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrCodeInternalError,
		})
	}

	reason := req.Reason
	if reason == "" {
		reason = "stopped over http"
	}

	if h.stop == nil || !h.stop(reason) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "no match is running",
			Code:  core.ErrCodeMatchNotRunning,
		})
	}

	log.Printf("stop requested from %s: %s", c.IP(), reason)
	return c.Status(fiber.StatusAccepted).JSON(StopResponse{Stopping: true, Reason: reason})
}

func notStarted(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
		Error: "match has not started",
		Code:  core.ErrCodeMatchNotStarted,
	})
}
