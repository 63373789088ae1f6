package server

import (
	"strings"

	"marina/models"

	"github.com/gofiber/fiber/v2"
)

// checkIncoming ensures the request body is declared as application/json.
// Returns a 415 error otherwise.
func checkIncoming(c *fiber.Ctx) (int, *models.AppError) {
	contentType := c.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		c.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
		return fiber.StatusUnsupportedMediaType,
			models.NewMediaTypeError("Media type must be application/json")
	}
	return 0, nil
}

// checkOutgoing ensures the client accepts an application/json response.
// Returns a 406 error otherwise.
func checkOutgoing(c *fiber.Ctx) (int, *models.AppError) {
	if c.Accepts(fiber.MIMEApplicationJSON) == "" {
		return fiber.StatusNotAcceptable,
			models.NewMediaTypeError("Accepted media type must be application/json")
	}
	return 0, nil
}

// checkMediaTypes combines both media type checks for body-carrying endpoints.
func checkMediaTypes(c *fiber.Ctx) (int, *models.AppError) {
	if status, appErr := checkIncoming(c); appErr != nil {
		return status, appErr
	}
	return checkOutgoing(c)
}
