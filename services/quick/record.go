package quick

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// LogTypeHarvest is the log bundle created by the eggs form.
	LogTypeHarvest = "harvest"

	MeasureCount = "count"
	UnitsEggs    = "egg(s)"
)

// AssetOption is an eligible asset as offered by the form.
type AssetOption struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// AssetQuery lists the assets the eggs form may attribute a harvest to.
type AssetQuery interface {
	// FindEggProducers returns active assets flagged as egg producers, in
	// display order.
	FindEggProducers(ctx context.Context) ([]AssetOption, error)
}

// LocationResolver reports the current location(s) of an asset.
type LocationResolver interface {
	LocationsOf(ctx context.Context, assetID uuid.UUID) ([]uuid.UUID, error)
}

// LogSink persists a record as a new log.
type LogSink interface {
	Create(ctx context.Context, rec Record) error
}

// Quantity is a single measurement attached to a log.
type Quantity struct {
	Measure string  `json:"measure"`
	Value   float64 `json:"value"`
	Units   string  `json:"units"`
}

// Notes is rich text with its text format.
type Notes struct {
	Value  string `json:"value"`
	Format string `json:"format"`
}

// Record is the log a quick form asks the sink to create. A nil Timestamp
// leaves defaulting to the sink.
type Record struct {
	Type      string      `json:"type"`
	Quick     string      `json:"quick"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Name      string      `json:"name"`
	Assets    []uuid.UUID `json:"asset"`
	Quantity  []Quantity  `json:"quantity"`
	Locations []uuid.UUID `json:"location"`
	Notes     *Notes      `json:"notes,omitempty"`
}
