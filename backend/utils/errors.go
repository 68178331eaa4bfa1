package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// AppError is an error with an HTTP status and optional diagnostics. The
// fiber ErrorHandler renders it as ErrorResponse.
type AppError struct {
	Status  int
	Message string
	Details interface{}
	Stage   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails attaches diagnostic data shown to the client.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithStage(stage string) *AppError {
	e.Stage = stage
	return e
}

func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func AuthError(message string) *AppError {
	return newAppError(fiber.StatusUnauthorized, message)
}

func NotFoundError(message string) *AppError {
	return newAppError(fiber.StatusNotFound, message)
}

func ValidationError(message string) *AppError {
	return newAppError(fiber.StatusBadRequest, message)
}

func ConflictError(message string) *AppError {
	return newAppError(fiber.StatusConflict, message)
}

// UpstreamError reports a non-success answer from a third-party API.
func UpstreamError(message string, status int, body string) *AppError {
	return newAppError(fiber.StatusBadGateway, message).WithDetails(fiber.Map{
		"status": status,
		"body":   body,
	})
}

func TranscriptionError(message string) *AppError {
	return newAppError(fiber.StatusInternalServerError, message)
}

func InternalError(message string, err error) *AppError {
	return newAppError(fiber.StatusInternalServerError, message).Wrap(err)
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so that no handler
// ever returns an unstructured body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{
			Success: false,
			Error:   appErr.Message,
			Message: http.StatusText(appErr.Status),
			Details: appErr.Details,
			Stage:   appErr.Stage,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Success: false,
			Error:   fiberErr.Message,
			Message: http.StatusText(fiberErr.Code),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Message: http.StatusText(fiber.StatusInternalServerError),
	})
}
