package handlers

import (
	"errors"

	applog "medimart/internal/log"
	"medimart/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errorBody is the JSON shape of every error response. Detail is only
// filled in development.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// statusOf maps a service error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrNotProvisioned):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// fail writes err as JSON and logs it under action. Server-side failures keep
// their detail out of the message.
func fail(c *fiber.Ctx, action string, err error, fallback string) error {
	status := statusOf(err)
	body := errorBody{Message: services.Message(err, fallback)}
	if status >= fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, nil)
	} else {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			body.Message = fe.Message
		}
	}
	if isDev(c) {
		body.Error = err.Error()
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody{Message: msg})
}

func isDev(c *fiber.Ctx) bool {
	dev, _ := c.Locals(localDev).(bool)
	return dev
}

// ErrorHandler is the catch-all for errors and panics that escape handlers.
func ErrorHandler(dev bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		msg := "Server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			if status < fiber.StatusInternalServerError {
				msg = fe.Message
			}
		}
		if status >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		}
		body := errorBody{Message: msg}
		if dev {
			body.Error = err.Error()
		}
		return c.Status(status).JSON(body)
	}
}
