package response

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/utils/apperr"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Warning string       `json:"warning,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created returns a 201 with data
func Created(c *fiber.Ctx, data interface{}) error {
	return CreatedWithWarning(c, data, "")
}

// CreatedWithWarning is Created for a write that went through but left
// something behind, e.g. a stored file whose record could not be saved.
// The reply is still a success.
func CreatedWithWarning(c *fiber.Ctx, data interface{}, warning string) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
		Warning: warning,
	})
}

func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

// ValidationError answers 422 with the validator output in details
func ValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "Validation failed",
			Details: err.Error(),
		},
	})
}

func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message, "SERVICE_UNAVAILABLE")
}

// Status maps a service error to its HTTP status and error code
func Status(err error) (int, string) {
	var (
		unreadable *apperr.UnreadableFileError
		transport  *apperr.UploadTransportError
		authErr    *apperr.AuthError
		notFound   *apperr.NotFoundError
		persist    *apperr.PersistenceError
	)

	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &authErr):
		return authStatus(authErr)
	case errors.As(err, &unreadable):
		return fiber.StatusUnprocessableEntity, "UNREADABLE_FILE"
	case errors.As(err, &transport):
		return fiber.StatusBadGateway, "UPLOAD_FAILED"
	case errors.As(err, &persist):
		return fiber.StatusInternalServerError, "PERSISTENCE_ERROR"
	}
	return fiber.StatusInternalServerError, "INTERNAL_ERROR"
}

func authStatus(err *apperr.AuthError) (int, string) {
	switch err.Reason {
	case "email-already-in-use":
		return fiber.StatusConflict, "EMAIL_IN_USE"
	case "weak-password":
		return fiber.StatusUnprocessableEntity, "WEAK_PASSWORD"
	}
	return fiber.StatusUnauthorized, "UNAUTHORIZED"
}

// FromError writes the error response for a service error. Internal errors
// are not echoed to the client.
func FromError(c *fiber.Ctx, err error) error {
	status, code := Status(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		return InternalServerError(c, "")
	}
	return Error(c, status, message(err), code)
}

func message(err error) string {
	msg := err.Error()
	for _, prefix := range []string{apperr.ErrValidation.Error() + ": ", apperr.ErrForbidden.Error() + ": ", apperr.ErrConflict.Error() + ": "} {
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
