package server

import (
	"time"

	"marina/auth"
	"marina/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const stateCookie = "auth_state"

// Login handles GET /login by redirecting to the Auth0 authorization page.
func (s *Server) Login(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
	})
	return c.Redirect(s.authenticator.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback handles the response from Auth0 once the user logs in. A user
// entity is created on the subject's first login. The response carries the
// id_token the caller uses as a bearer token against the API.
func (s *Server) Callback(c *fiber.Ctx) error {
	if c.Query("state") == "" || c.Query("state") != c.Cookies(stateCookie) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid state parameter"))
	}

	token, err := s.authenticator.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login failed"))
	}

	info, err := s.authenticator.UserInfo(c.Context(), token)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login failed"))
	}

	// First login creates the user entity.
	user, err := s.userRepo.GetBySubject(c.Context(), info.Sub)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if user == nil {
		user = &models.User{
			UniqueID: info.Sub,
			Nickname: info.Nickname,
			Boats:    models.BoatRefs{},
		}
		if err := s.userRepo.Create(c.Context(), user); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	idToken, ok := auth.IDToken(token)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login failed"))
	}

	c.ClearCookie(stateCookie)
	return c.JSON(fiber.Map{
		"jwt":       idToken,
		"unique_id": info.Sub,
	})
}
