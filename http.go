package wiki

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-print"
)

// APIPrefix is where every API route is mounted
const APIPrefix = "/api/v1"

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ServerConfig holds HTTP server options
type ServerConfig interface {
	GetAppName() string
	GetReadTimeout() time.Duration
	GetWriteTimeout() time.Duration
	GetIdleTimeout() time.Duration
	GetBodyLimit() int
}

// NewHTTPApp returns a fiber app with the error handler, panic recovery,
// request ids and request logging installed.
func NewHTTPApp(cfg ServerConfig, logger Logger) *fiber.App {
	logger = resolveLogger(logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.GetAppName(),
		ReadTimeout:           cfg.GetReadTimeout(),
		WriteTimeout:          cfg.GetWriteTimeout(),
		IdleTimeout:           cfg.GetIdleTimeout(),
		BodyLimit:             cfg.GetBodyLimit(),
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(RequestLogger(logger))
	app.Use(recover.New())

	return app
}

// ErrorHandler renders errors as {"detail": ...}. Domain errors use
// HTTPStatus; anything unknown is a 500 with no detail.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = resolveLogger(logger)
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			detail := fe.Message
			if fe.Code == fiber.StatusNotFound {
				// fiber's route miss message echoes the method and path
				detail = http.StatusText(http.StatusNotFound)
			}
			return c.Status(fe.Code).JSON(ErrorResponse{Detail: detail})
		}

		status := HTTPStatus(err)
		detail := http.StatusText(http.StatusInternalServerError)

		var de *Error
		if errors.As(err, &de) {
			detail = de.Detail()
		}

		if IsAuthChallenge(err) {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed",
				"request_id", requestID(c),
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		default:
			var verrs validation.Errors
			if errors.As(err, &verrs) {
				logger.Debug("request rejected",
					"request_id", requestID(c),
					"path", c.Path(),
					"details", print.MaybePrettyJSON(verrs),
				)
			}
		}

		return c.Status(status).JSON(ErrorResponse{Detail: detail})
	}
}

// RequestLogger logs one line per request after the error handler ran
func RequestLogger(logger Logger) fiber.Handler {
	logger = resolveLogger(logger)
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.Info("request",
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start).String(),
		)
		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
