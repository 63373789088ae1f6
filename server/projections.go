package server

import (
	"fmt"
	"strconv"

	"marina/models"

	"github.com/gofiber/fiber/v2"
)

// boatResponse is the wire projection of a boat, with a string id and a
// computed self-link.
type boatResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Length int             `json:"length"`
	Loads  models.LoadRefs `json:"loads"`
	Owner  string          `json:"owner"`
	Self   string          `json:"self"`
}

// loadResponse is the wire projection of a load.
type loadResponse struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	Destination string         `json:"destination"`
	Volume      int            `json:"volume"`
	Carrier     models.Carrier `json:"carrier"`
	Self        string         `json:"self"`
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func boatProjection(boat *models.Boat, self string) boatResponse {
	return boatResponse{
		ID:     formatID(boat.ID),
		Name:   boat.Name,
		Type:   boat.Type,
		Length: boat.Length,
		Loads:  boat.Loads,
		Owner:  boat.Owner,
		Self:   self,
	}
}

func loadProjection(load *models.Load, self string) loadResponse {
	return loadResponse{
		ID:          formatID(load.ID),
		Content:     load.Content,
		Destination: load.Destination,
		Volume:      load.Volume,
		Carrier:     load.Carrier,
		Self:        self,
	}
}

// boatURL is the canonical self-link for a boat id.
func boatURL(c *fiber.Ctx, id uint) string {
	return fmt.Sprintf("%s/boats/%s", c.BaseURL(), formatID(id))
}

// loadURL is the canonical self-link for a load id.
func loadURL(c *fiber.Ctx, id uint) string {
	return fmt.Sprintf("%s/loads/%s", c.BaseURL(), formatID(id))
}

// nextPageURL builds the "next" link for a paginated listing, or "" when the
// current page exhausts the collection.
func nextPageURL(c *fiber.Ctx, limit, offset int, total int64) string {
	if int64(offset+limit) >= total {
		return ""
	}
	return fmt.Sprintf("%s%s?limit=%d&offset=%d", c.BaseURL(), c.Path(), limit, offset+limit)
}
