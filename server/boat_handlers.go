package server

import (
	"encoding/json"
	"errors"
	"strconv"

	"marina/models"
	"marina/observability"
	"marina/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	boatNotFoundMessage  = "No boat with this boat_id exists"
	loadNotFoundMessage  = "No load with this load_id exists"
	notAuthorizedMessage = "Not authorized"
)

func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// parseBody decodes a JSON request body. A body that does not parse as JSON
// reports the same 415 as a wrong Content-Type.
func parseBody(c *fiber.Ctx, out any) *models.AppError {
	if err := json.Unmarshal(c.Body(), out); err != nil {
		c.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
		return models.NewMediaTypeError("Media type must be application/json")
	}
	return nil
}

// CreateBoat handles POST /boats
// @Summary Create a boat
// @Description Create a boat owned by the authenticated caller.
// @Tags boats
// @Accept json
// @Produce json
// @Param request body object{name=string,type=string,length=int} true "Boat attributes"
// @Success 201 {object} boatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /boats [post]
func (s *Server) CreateBoat(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.BoatRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	attrs, appErr := validation.Boat(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	boat := &models.Boat{
		Name:   attrs.Name,
		Type:   attrs.Type,
		Length: attrs.Length,
		Owner:  c.Locals("subject").(string),
		Loads:  models.LoadRefs{},
	}

	if err := s.boatRepo.Create(c.Context(), boat, c.BaseURL()+"/boats"); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(boatProjection(boat, boatURL(c, boat.ID)))
}

// GetBoat handles GET /boats/:id
// @Summary Get a boat
// @Description Get one of the caller's boats by id.
// @Tags boats
// @Produce json
// @Param id path string true "Boat id"
// @Success 200 {object} boatResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /boats/{id} [get]
func (s *Server) GetBoat(c *fiber.Ctx) error {
	if status, appErr := checkOutgoing(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(boatNotFoundMessage))
	}

	boat, err := s.boatRepo.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if boat == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(boatNotFoundMessage))
	}
	if boat.Owner != c.Locals("subject").(string) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError(notAuthorizedMessage))
	}

	return c.JSON(boatProjection(boat, boatURL(c, boat.ID)))
}

// GetBoats handles GET /boats with pagination, filtered to the caller's boats.
// @Summary List the caller's boats
// @Tags boats
// @Produce json
// @Param limit query int false "Page size" default(5)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} object{boats=[]boatResponse,total_items=int,next=string}
// @Security BearerAuth
// @Router /boats [get]
func (s *Server) GetBoats(c *fiber.Ctx) error {
	if status, appErr := checkOutgoing(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	limit := c.QueryInt("limit", 5)
	offset := c.QueryInt("offset", 0)
	owner := c.Locals("subject").(string)

	boats, total, err := s.boatRepo.List(c.Context(), owner, limit, offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	projections := make([]boatResponse, 0, len(boats))
	for _, boat := range boats {
		projections = append(projections, boatProjection(boat, boatURL(c, boat.ID)))
	}

	response := fiber.Map{
		"boats":       projections,
		"total_items": total,
	}
	if next := nextPageURL(c, limit, offset, total); next != "" {
		response["next"] = next
	}
	return c.JSON(response)
}

// UpdateBoat handles PUT /boats/:id, a full replacement of the mutable
// attributes. Responds 303 with the updated projection and a Location header.
func (s *Server) UpdateBoat(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.BoatRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	attrs, appErr := validation.Boat(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	boat, appErr, status := s.ownedBoat(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	boat.Name = attrs.Name
	boat.Type = attrs.Type
	boat.Length = attrs.Length

	if err := s.boatRepo.Update(c.Context(), boat); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	self := boatURL(c, boat.ID)
	c.Set(fiber.HeaderLocation, self)
	return c.Status(fiber.StatusSeeOther).JSON(boatProjection(boat, self))
}

// PatchBoat handles PATCH /boats/:id, updating only the supplied attributes.
func (s *Server) PatchBoat(c *fiber.Ctx) error {
	if status, appErr := checkMediaTypes(c); appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	var req validation.BoatRequest
	if appErr := parseBody(c, &req); appErr != nil {
		return models.RespondWithError(c, fiber.StatusUnsupportedMediaType, appErr)
	}
	patch, appErr := validation.BoatPartial(req)
	if appErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	boat, appErr, status := s.ownedBoat(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	if patch.Name != nil {
		boat.Name = *patch.Name
	}
	if patch.Type != nil {
		boat.Type = *patch.Type
	}
	if patch.Length != nil {
		boat.Length = *patch.Length
	}

	if err := s.boatRepo.Update(c.Context(), boat); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	self := boatURL(c, boat.ID)
	c.Set(fiber.HeaderLocation, self)
	return c.Status(fiber.StatusSeeOther).JSON(boatProjection(boat, self))
}

// DeleteBoat handles DELETE /boats/:id. Every load carried by the boat is
// set back to carrier "none" before the boat disappears.
func (s *Server) DeleteBoat(c *fiber.Ctx) error {
	boat, appErr, status := s.ownedBoat(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	if err := s.boatRepo.Delete(c.Context(), boat); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AttachLoad handles PUT /boats/:id/loads/:lid
func (s *Server) AttachLoad(c *fiber.Ctx) error {
	boat, appErr, status := s.ownedBoat(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	loadID, ok := parseIDParam(c, "lid")
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	}
	load, err := s.loadRepo.GetByID(c.Context(), loadID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if load == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	}

	err = s.boatRepo.AttachLoad(c.Context(), boat.ID, load.ID,
		boatURL(c, boat.ID), loadURL(c, load.ID))
	switch {
	case errors.Is(err, models.ErrLoadHasCarrier):
		observability.CarrierAssignments.WithLabelValues("attach", "conflict").Inc()
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("The specified load already has a carrier"))
	case errors.Is(err, models.ErrBoatNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(boatNotFoundMessage))
	case errors.Is(err, models.ErrLoadNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	case err != nil:
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.CarrierAssignments.WithLabelValues("attach", "ok").Inc()
	return c.SendStatus(fiber.StatusNoContent)
}

// DetachLoad handles DELETE /boats/:id/loads/:lid
func (s *Server) DetachLoad(c *fiber.Ctx) error {
	boat, appErr, status := s.ownedBoat(c)
	if appErr != nil {
		return models.RespondWithError(c, status, appErr)
	}

	loadID, ok := parseIDParam(c, "lid")
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	}
	load, err := s.loadRepo.GetByID(c.Context(), loadID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if load == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	}

	err = s.boatRepo.DetachLoad(c.Context(), boat.ID, load.ID)
	switch {
	case errors.Is(err, models.ErrLoadNotOnBoat):
		observability.CarrierAssignments.WithLabelValues("detach", "conflict").Inc()
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("The specified load is not on this carrier"))
	case errors.Is(err, models.ErrBoatNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(boatNotFoundMessage))
	case errors.Is(err, models.ErrLoadNotFound):
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(loadNotFoundMessage))
	case err != nil:
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.CarrierAssignments.WithLabelValues("detach", "ok").Inc()
	return c.SendStatus(fiber.StatusNoContent)
}

// ownedBoat fetches the boat in the :id parameter and checks it belongs to
// the caller. Returns the error and status to render when it does not.
func (s *Server) ownedBoat(c *fiber.Ctx) (*models.Boat, *models.AppError, int) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, models.NewNotFoundError(boatNotFoundMessage), fiber.StatusNotFound
	}

	boat, err := s.boatRepo.GetByID(c.Context(), id)
	if err != nil {
		return nil, models.NewInternalError(err), fiber.StatusInternalServerError
	}
	if boat == nil {
		return nil, models.NewNotFoundError(boatNotFoundMessage), fiber.StatusNotFound
	}
	if boat.Owner != c.Locals("subject").(string) {
		return nil, models.NewForbiddenError(notAuthorizedMessage), fiber.StatusForbidden
	}
	return boat, nil, 0
}
