// Package validation checks the shape, type and range of incoming boat and
// load attributes. Attributes arrive as raw JSON so that a wrong JSON type
// (e.g. a numeric name) reports the same validation error as a bad value.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"marina/models"
)

const maxTextLength = 20
const maxMagnitude = 999

// BoatAttributes is a fully validated boat creation or replacement request.
type BoatAttributes struct {
	Name   string
	Type   string
	Length int
}

// BoatPatch carries the subset of boat attributes supplied in a partial
// update. Nil fields were absent from the request.
type BoatPatch struct {
	Name   *string
	Type   *string
	Length *int
}

// LoadAttributes is a fully validated load creation or replacement request.
type LoadAttributes struct {
	Content     string
	Destination string
	Volume      int
}

// LoadPatch carries the subset of load attributes supplied in a partial update.
type LoadPatch struct {
	Content     *string
	Destination *string
	Volume      *int
}

// BoatRequest is the raw body of a boat create/update request.
type BoatRequest struct {
	Name   json.RawMessage `json:"name"`
	Type   json.RawMessage `json:"type"`
	Length json.RawMessage `json:"length"`
}

// LoadRequest is the raw body of a load create/update request.
type LoadRequest struct {
	Content     json.RawMessage `json:"content"`
	Destination json.RawMessage `json:"destination"`
	Volume      json.RawMessage `json:"volume"`
}

var errMissingAttributes = models.NewValidationError(
	"The request object is missing at least one of the required attributes")

// Text validates a textual attribute: it must be a JSON string containing
// only letters, at most 20 characters long.
func Text(attr string, raw json.RawMessage) (string, *models.AppError) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", models.NewValidationError(
			fmt.Sprintf("Object %s must only contain characters", attr))
	}
	for _, r := range strings.ToUpper(value) {
		if r < 'A' || r > 'Z' {
			return "", models.NewValidationError(
				fmt.Sprintf("Object %s must only contain characters", attr))
		}
	}
	if len(value) > maxTextLength {
		return "", models.NewValidationError(
			fmt.Sprintf("Object %s can only be %d characters long", attr, maxTextLength))
	}
	return value, nil
}

// Integer validates a numeric attribute: it must be a JSON integer below 1000.
func Integer(attr string, raw json.RawMessage) (int, *models.AppError) {
	var value int
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, models.NewValidationError(
			fmt.Sprintf("Object %s must contain only integers", attr))
	}
	if value > maxMagnitude {
		return 0, models.NewValidationError(
			fmt.Sprintf("Object %s must be less than %d", attr, maxMagnitude+1))
	}
	return value, nil
}

// Boat validates a full boat request. All three attributes must be present.
func Boat(req BoatRequest) (*BoatAttributes, *models.AppError) {
	if req.Name == nil || req.Type == nil || req.Length == nil {
		return nil, errMissingAttributes
	}

	name, appErr := Text("name", req.Name)
	if appErr != nil {
		return nil, appErr
	}
	boatType, appErr := Text("type", req.Type)
	if appErr != nil {
		return nil, appErr
	}
	length, appErr := Integer("length", req.Length)
	if appErr != nil {
		return nil, appErr
	}

	return &BoatAttributes{Name: name, Type: boatType, Length: length}, nil
}

// BoatPartial validates a partial boat update. At least one recognized
// attribute must be present; only supplied attributes are validated.
func BoatPartial(req BoatRequest) (*BoatPatch, *models.AppError) {
	if req.Name == nil && req.Type == nil && req.Length == nil {
		return nil, errMissingAttributes
	}

	patch := &BoatPatch{}
	if req.Name != nil {
		name, appErr := Text("name", req.Name)
		if appErr != nil {
			return nil, appErr
		}
		patch.Name = &name
	}
	if req.Type != nil {
		boatType, appErr := Text("type", req.Type)
		if appErr != nil {
			return nil, appErr
		}
		patch.Type = &boatType
	}
	if req.Length != nil {
		length, appErr := Integer("length", req.Length)
		if appErr != nil {
			return nil, appErr
		}
		patch.Length = &length
	}
	return patch, nil
}

// Load validates a full load request. All three attributes must be present.
func Load(req LoadRequest) (*LoadAttributes, *models.AppError) {
	if req.Content == nil || req.Destination == nil || req.Volume == nil {
		return nil, errMissingAttributes
	}

	content, appErr := Text("content", req.Content)
	if appErr != nil {
		return nil, appErr
	}
	destination, appErr := Text("destination", req.Destination)
	if appErr != nil {
		return nil, appErr
	}
	volume, appErr := Integer("volume", req.Volume)
	if appErr != nil {
		return nil, appErr
	}

	return &LoadAttributes{Content: content, Destination: destination, Volume: volume}, nil
}

// LoadPartial validates a partial load update. At least one recognized
// attribute must be present; only supplied attributes are validated.
func LoadPartial(req LoadRequest) (*LoadPatch, *models.AppError) {
	if req.Content == nil && req.Destination == nil && req.Volume == nil {
		return nil, errMissingAttributes
	}

	patch := &LoadPatch{}
	if req.Content != nil {
		content, appErr := Text("content", req.Content)
		if appErr != nil {
			return nil, appErr
		}
		patch.Content = &content
	}
	if req.Destination != nil {
		destination, appErr := Text("destination", req.Destination)
		if appErr != nil {
			return nil, appErr
		}
		patch.Destination = &destination
	}
	if req.Volume != nil {
		volume, appErr := Integer("volume", req.Volume)
		if appErr != nil {
			return nil, appErr
		}
		patch.Volume = &volume
	}
	return patch, nil
}
