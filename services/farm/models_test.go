package farm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"farmquick/services/quick"
)

func TestAssetModelToAPI(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m := assetModel{
		ID:           uuid.New(),
		Name:         "Chickens",
		Type:         "group",
		Status:       StatusActive,
		ProducesEggs: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	got := m.toAPI()
	assert.Equal(t, m.ID, got.ID)
	assert.True(t, got.ProducesEggs)
	assert.Equal(t, map[string]any{}, got.Attributes)

	m.Attributes = datatypes.JSONMap{"breed": "Leghorn"}
	assert.Equal(t, map[string]any{"breed": "Leghorn"}, m.toAPI().Attributes)
}

func TestLogModelToAPI(t *testing.T) {
	q := quick.EggsFormID
	m := logModel{ID: uuid.New(), Type: quick.LogTypeHarvest, Quick: &q, Status: LogStatusDone}
	assert.Equal(t, "eggs", m.toAPI().Quick)

	m.Quick = nil
	assert.Empty(t, m.toAPI().Quick)
}

func TestNewLogCreated(t *testing.T) {
	ts := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	model := logModel{ID: uuid.New(), Type: quick.LogTypeHarvest, Name: "Collected 3 egg(s)", Timestamp: ts}

	evt := newLogCreated(model, quick.Record{Quick: quick.EggsFormID})
	assert.Equal(t, model.ID, evt.LogID)
	assert.Equal(t, "eggs", evt.Quick)
	assert.Equal(t, ts, evt.Timestamp)
	assert.NotNil(t, evt.Assets)
	assert.NotNil(t, evt.Locations)
	assert.NotNil(t, evt.Quantity)
}

func TestMovementName(t *testing.T) {
	got := movementName(
		[]assetModel{{Name: "Chickens"}, {Name: "Hens"}},
		[]assetModel{{Name: "Chicken Coop"}},
	)
	assert.Equal(t, "Move Chickens, Hens to Chicken Coop", got)
}
