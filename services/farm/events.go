package farm

import (
	"time"

	"github.com/google/uuid"

	"farmquick/services/quick"
)

// LogsCreatedSubject carries a LogCreated event for every log created from a
// quick form.
const LogsCreatedSubject = "farm.logs.created"

// LogCreated is published after a log is committed.
type LogCreated struct {
	LogID     uuid.UUID        `json:"log_id"`
	Type      string           `json:"type"`
	Quick     string           `json:"quick,omitempty"`
	Name      string           `json:"name"`
	Timestamp time.Time        `json:"timestamp"`
	Assets    []uuid.UUID      `json:"assets"`
	Locations []uuid.UUID      `json:"locations"`
	Quantity  []quick.Quantity `json:"quantity"`
}

func newLogCreated(model logModel, rec quick.Record) LogCreated {
	evt := LogCreated{
		LogID:     model.ID,
		Type:      model.Type,
		Quick:     rec.Quick,
		Name:      model.Name,
		Timestamp: model.Timestamp,
		Assets:    rec.Assets,
		Locations: rec.Locations,
		Quantity:  rec.Quantity,
	}
	if evt.Assets == nil {
		evt.Assets = []uuid.UUID{}
	}
	if evt.Locations == nil {
		evt.Locations = []uuid.UUID{}
	}
	if evt.Quantity == nil {
		evt.Quantity = []quick.Quantity{}
	}
	return evt
}
