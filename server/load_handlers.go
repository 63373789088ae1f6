package server

import (
	"marina/models"
	"marina/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateLoad handles POST /loads. Loads have no owner and creating one
// requires no authentication.
// @Summary Create a load
// @Tags loads
// @Accept json
// @Produce json
// @Param request body object{content=string,destination=string,volume=int} true "Load attributes"
// @Success 201 {object} loadResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /loads [post]
func (s *Server) CreateLoad(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.LoadRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	attrs, appErr := validation.Load(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	load := &models.Load{
		Content:     attrs.Content,
		Destination: attrs.Destination,
		Volume:      attrs.Volume,
	}

	if err := s.loadRepo.Create(c.Context(), load); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(loadProjection(load, loadURL(c, load.ID)))
}

// GetLoad handles GET /loads/:id
func (s *Server) GetLoad(c *fiber.Ctx) error {
	if status, appErr := checkOutgoing(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	load, appErr, status := s.loadByID(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	return c.JSON(loadProjection(load, loadURL(c, load.ID)))
}

// GetLoads handles GET /loads with pagination.
// @Summary List all loads
// @Tags loads
// @Produce json
// @Param limit query int false "Page size" default(5)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} object{loads=[]loadResponse,total_items=int,next=string}
// @Router /loads [get]
func (s *Server) GetLoads(c *fiber.Ctx) error {
	if status, appErr := checkOutgoing(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	limit := c.QueryInt("limit", 5)
	offset := c.QueryInt("offset", 0)

	loads, total, err := s.loadRepo.List(c.Context(), limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	projections := make([]loadResponse, 0, len(loads))
	for _, load := range loads {
		projections = append(projections, loadProjection(load, loadURL(c, load.ID)))
	}

	response := fiber.Map{
		"loads":       projections,
		"total_items": total,
	}
	if next := nextPageURL(c, limit, offset, total); next != "" {
		response["next"] = next
	}
	return c.JSON(response)
}

// UpdateLoad handles PUT /loads/:id, a full replacement of the mutable
// attributes. Responds 303 with the updated projection and a Location header.
func (s *Server) UpdateLoad(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.LoadRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	attrs, appErr := validation.Load(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	load, appErr, status := s.loadByID(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	load.Content = attrs.Content
	load.Destination = attrs.Destination
	load.Volume = attrs.Volume

	if err := s.loadRepo.Update(c.Context(), load); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	self := loadURL(c, load.ID)
	c.Set(fiber.HeaderLocation, self)
	return c.Status(fiber.StatusSeeOther).JSON(loadProjection(load, self))
}

// PatchLoad handles PATCH /loads/:id, updating only the supplied attributes.
func (s *Server) PatchLoad(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.LoadRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	patch, appErr := validation.LoadPartial(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	load, appErr, status := s.loadByID(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	if patch.Content != nil {
		load.Content = *patch.Content
	}
	if patch.Destination != nil {
		load.Destination = *patch.Destination
	}
	if patch.Volume != nil {
		load.Volume = *patch.Volume
	}

	if err := s.loadRepo.Update(c.Context(), load); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	self := loadURL(c, load.ID)
	c.Set(fiber.HeaderLocation, self)
	return c.Status(fiber.StatusSeeOther).JSON(loadProjection(load, self))
}

// DeleteLoad handles DELETE /loads/:id. An attached load is first removed
// from its carrier boat's load list.
func (s *Server) DeleteLoad(c *fiber.Ctx) error {
	load, appErr, status := s.loadByID(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	if err := s.loadRepo.Delete(c.Context(), load); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// loadByID fetches the load in the :id parameter. Returns the error and
// status to render when it does not exist.
func (s *Server) loadByID(c *fiber.Ctx) (*models.Load, *models.AppError, int) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, models.NewNotFoundError(loadNotFoundMessage), fiber.StatusNotFound
	}

	load, err := s.loadRepo.GetByID(c.Context(), id)
	if err != nil {
		return nil, models.NewInternalError(err), fiber.StatusInternalServerError
	}
	if load == nil {
		return nil, models.NewNotFoundError(loadNotFoundMessage), fiber.StatusNotFound
	}
	return load, nil, 0
}
