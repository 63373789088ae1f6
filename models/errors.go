package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Relationship store sentinels. Attach/detach re-check entity existence and
// carrier state inside the transaction and report violations through these.
var (
	// ErrLoadHasCarrier is returned when attaching a load that is already
	// carried by some boat.
	ErrLoadHasCarrier = errors.New("the specified load already has a carrier")
	// ErrLoadNotOnBoat is returned when detaching a load that is not carried
	// by the given boat.
	ErrLoadNotOnBoat = errors.New("the specified load is not on this carrier")
	// ErrBoatNotFound is returned when the boat row disappeared between the
	// handler's lookup and the transaction.
	ErrBoatNotFound = errors.New("boat does not exist")
	// ErrLoadNotFound is the load-side counterpart of ErrBoatNotFound.
	ErrLoadNotFound = errors.New("load does not exist")
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"Error"`
}

// AppError is a typed application error carrying a machine-readable code
// alongside the client-facing message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message}
}

func NewMethodNotAllowedError() *AppError {
	return &AppError{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"}
}

func NewMediaTypeError(message string) *AppError {
	return &AppError{Code: "UNSUPPORTED_MEDIA_TYPE", Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error", Err: err}
}

// RespondWithError renders a standardized error body. The wire format uses a
// capitalized "Error" field.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(status).JSON(ErrorResponse{Error: appErr.Message})
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
