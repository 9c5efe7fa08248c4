package api

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/teleop-bridge/domain/teleop"
	"github.com/open-teleop/teleop-bridge/domain/tracking"
	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/services"
)

// Services are the handlers the API routes to. Config may be nil.
type Services struct {
	Teleop *teleop.TeleopService
	Poses  *tracking.PoseService
	Config services.ConfigService
}

// NewApp creates the Fiber app with every route registered.
func NewApp(svc Services, logger customlog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Teleop Bridge",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))

	RegisterRoutes(app, svc, logger)
	return app
}

// RegisterRoutes registers the HTTP and WebSocket endpoints.
func RegisterRoutes(app *fiber.App, svc Services, logger customlog.Logger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "teleop bridge",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")

	teleopRoutes := v1.Group("/teleop")
	teleopRoutes.Post("/command", svc.Teleop.CommandHandler)
	teleopRoutes.Post("/stop", svc.Teleop.StopHandler)
	teleopRoutes.Get("/status", svc.Teleop.StatusHandler)

	v1.Put("/heading", svc.Teleop.HeadingHandler)

	if svc.Poses != nil {
		v1.Get("/tracking/poses", svc.Poses.GetPosesHandler)
	}
	if svc.Config != nil {
		RegisterConfigRoutes(v1, svc.Config, logger)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, logger, svc.Teleop)
	}))
}

// requestLogger logs each request at debug level.
func requestLogger(logger customlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debugf("%s %s -> %d (%v)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
		return err
	}
}

// ErrorHandler renders errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
