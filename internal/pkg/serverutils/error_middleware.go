package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates errors escaping any handler into the
// standard failure envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			code = fiber.StatusUnprocessableEntity
		}

		return ctx.Status(code).JSON(FailureResponse(err.Error()))
	}
}
