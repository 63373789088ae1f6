package models

import (
	"encoding/json"
	"time"
)

// Boat represents a boat owned by a user. The Loads field is a denormalized
// list of the loads currently carried; the authoritative half of each link is
// the Carrier field on the load itself.
type Boat struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Type      string    `gorm:"not null" json:"type"`
	Length    int       `gorm:"not null" json:"length"`
	Owner     string    `gorm:"index;not null" json:"owner"`
	Loads     LoadRefs  `gorm:"serializer:json" json:"loads"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// LoadRef is a denormalized reference to a load carried by a boat.
type LoadRef struct {
	ID   string `json:"id"`
	Self string `json:"self"`
}

// LoadRefs exists so an empty list serializes as [] rather than null.
type LoadRefs []LoadRef

// MarshalJSON renders a nil slice as an empty JSON array.
func (r LoadRefs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]LoadRef(r))
}

// Remove returns the refs with the given load id filtered out.
func (r LoadRefs) Remove(loadID string) LoadRefs {
	kept := LoadRefs{}
	for _, ref := range r {
		if ref.ID != loadID {
			kept = append(kept, ref)
		}
	}
	return kept
}
