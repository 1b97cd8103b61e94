package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrNotFound marks a missing resource so the error handler can map it to 404.
var ErrNotFound = errors.New("resource not found")

// ErrorHandlerMiddleware converts returned errors into the structured error
// envelope. Only the top-level error text leaves the process, never a trace.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &validationErrs):
			code = fiber.StatusBadRequest
		case errors.Is(err, ErrNotFound):
			code = fiber.StatusNotFound
		}

		return ctx.Status(code).JSON(APIResponse{
			Status:  "error",
			Message: message,
		})
	}
}
