package handlers

import (
	"medimart/internal/config"
	applog "medimart/internal/log"
	"medimart/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "medimart"

// NewApp builds the Fiber app with middleware, API routes, health and
// metrics. storage backs the rate limiter; nil keeps counters in memory.
func NewApp(cfg config.Config, d *Deps, storage fiber.Storage) *fiber.App {
	dev := cfg.IsDevelopment()
	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: ErrorHandler(dev),
		BodyLimit:    cfg.MaxUploadBytes + 1<<20,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(recover.New(recover.Config{EnableStackTrace: dev}))
	app.Use(applog.AccessLog())
	app.Use(metrics.Middleware(serviceName))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New())
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
			Storage:    storage,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz" || c.Path() == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Message: "rate limit exceeded, retry soon"})
			},
		}))
	}
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(localDev, dev)
		return c.Next()
	})

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	d.Register(app.Group("/api"))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Message: "Not found"})
	})
	return app
}
