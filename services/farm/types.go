package farm

import (
	"time"

	"github.com/google/uuid"
)

// Asset statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Log statuses and types.
const (
	LogStatusDone    = "done"
	LogStatusPending = "pending"

	LogTypeActivity = "activity"
)

// Asset is a tracked farm entity: an animal, a group, a structure or a place.
type Asset struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Type         string         `json:"type" db:"type"`
	Status       string         `json:"status" db:"status"`
	ProducesEggs bool           `json:"produces_eggs" db:"produces_eggs"`
	IsLocation   bool           `json:"is_location" db:"is_location"`
	IsFixed      bool           `json:"is_fixed" db:"is_fixed"`
	Attributes   map[string]any `json:"attributes" db:"attributes"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// NewAsset describes an asset to create.
type NewAsset struct {
	Name         string         `json:"name" yaml:"name"`
	Type         string         `json:"type" yaml:"type"`
	Status       string         `json:"status,omitempty" yaml:"status"`
	ProducesEggs bool           `json:"produces_eggs" yaml:"produces_eggs"`
	IsLocation   bool           `json:"is_location" yaml:"is_location"`
	IsFixed      bool           `json:"is_fixed" yaml:"is_fixed"`
	Attributes   map[string]any `json:"attributes,omitempty" yaml:"attributes"`
}

// AssetFilter narrows ListAssets. Nil fields do not filter.
type AssetFilter struct {
	Status       *string
	ProducesEggs *bool
	Location     *uuid.UUID
	Limit        int
}

// Movement relocates assets. Once done and not in the future, its locations
// become the current locations of its assets.
type Movement struct {
	Name      string      `json:"name"`
	Assets    []uuid.UUID `json:"assets"`
	Locations []uuid.UUID `json:"locations"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Status    string      `json:"status,omitempty"`
}

// Log is a persisted log without its references.
type Log struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	IsMovement bool      `json:"is_movement"`
	Quick      string    `json:"quick,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
