package handlers

import (
	"fmt"
	"strconv"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as a JSON error response. Storage failures are logged and
// their details are not sent to the client.
func fail(c *fiber.Ctx, log *zap.Logger, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error(message, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"message": message,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// parseBody decodes the request body into req and validates it. It writes the
// error response itself and reports whether the handler should continue.
func parseBody(c *fiber.Ctx, validate *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, badBody(c, err)
	}
	if err := validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return false, badBody(c, err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// idParam reads a positive numeric path parameter.
func idParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badID(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": fmt.Sprintf("Invalid %s '%s'", name, c.Params(name)),
	})
}

// chain appends handler to a copy of middlewares, for routes that share a
// path prefix with public routes and so cannot use a group.
func chain(middlewares []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(middlewares)+1)
	handlers = append(handlers, middlewares...)
	return append(handlers, handler)
}
