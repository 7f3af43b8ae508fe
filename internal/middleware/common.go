package middleware

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the portal middleware chain.
type Config struct {
	Logger        *zerolog.Logger
	DefaultLocale string
	// AccessLog adds fiber's plain-text access log next to the structured one.
	AccessLog bool
	// AllowOrigins is passed to CORS; empty means same-origin only.
	AllowOrigins string
}

// Register installs the chain every portal route runs through. Correlation
// comes before Observability so request logs carry the id.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(Observability(requestLogger))
	app.Use(Locale(cfg.DefaultLocale))
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowOrigins,
			AllowHeaders:  "Origin, Content-Type, Accept, Accept-Language, " + headerCorrelationID,
			AllowMethods:  "GET,POST,PUT,DELETE",
			ExposeHeaders: headerCorrelationID,
		}))
	}
}
