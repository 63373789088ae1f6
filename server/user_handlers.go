package server

import (
	"marina/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllUsers handles GET /users. No authentication; returns every user with
// their nickname and boat list.
// @Summary List all users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	if status, appErr := checkOutgoing(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	users, err := s.userRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if users == nil {
		users = []*models.User{}
	}
	return c.JSON(users)
}
