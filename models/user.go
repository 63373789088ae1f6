// Package models contains data structures for the application's domain entities.
package models

import (
	"encoding/json"
	"time"
)

// User represents an API user. Users are created automatically the first
// time a subject completes the Auth0 login flow and are never deleted.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UniqueID  string    `gorm:"uniqueIndex;not null" json:"unique_id"`
	Nickname  string    `json:"nickname"`
	Boats     BoatRefs  `gorm:"serializer:json" json:"boats"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BoatRef is a denormalized reference to a boat owned by a user.
type BoatRef struct {
	ID   string `json:"id"`
	Self string `json:"self"`
}

// BoatRefs exists so an empty list serializes as [] rather than null.
type BoatRefs []BoatRef

// MarshalJSON renders a nil slice as an empty JSON array.
func (r BoatRefs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]BoatRef(r))
}

// Remove returns the refs with the given boat id filtered out.
func (r BoatRefs) Remove(boatID string) BoatRefs {
	kept := BoatRefs{}
	for _, ref := range r {
		if ref.ID != boatID {
			kept = append(kept, ref)
		}
	}
	return kept
}
