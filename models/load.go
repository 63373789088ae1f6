package models

import (
	"encoding/json"
	"time"
)

// Load represents a cargo load. Loads have no owner; anyone may create,
// modify or delete them.
type Load struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Content     string    `gorm:"not null" json:"content"`
	Destination string    `gorm:"not null" json:"destination"`
	Volume      int       `gorm:"not null" json:"volume"`
	Carrier     Carrier   `gorm:"serializer:json" json:"carrier"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Carrier identifies the boat currently transporting a load. The zero value
// means the load is unattached and serializes as the string "none".
type Carrier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Self string `json:"self"`
}

// IsNone reports whether the load has no carrier.
func (c Carrier) IsNone() bool {
	return c.ID == ""
}

// MarshalJSON emits the "none" sentinel for an unattached carrier.
func (c Carrier) MarshalJSON() ([]byte, error) {
	if c.IsNone() {
		return json.Marshal("none")
	}
	type carrier Carrier
	return json.Marshal(carrier(c))
}

// UnmarshalJSON accepts either the "none" sentinel or a carrier object.
func (c *Carrier) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		*c = Carrier{}
		return nil
	}
	type carrier Carrier
	var decoded carrier
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = Carrier(decoded)
	return nil
}
