package farm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type assetModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name         string            `gorm:"type:text;not null"`
	Type         string            `gorm:"type:text;not null"`
	Status       string            `gorm:"type:text;not null"`
	ProducesEggs bool              `gorm:"not null"`
	IsLocation   bool              `gorm:"not null"`
	IsFixed      bool              `gorm:"not null"`
	Attributes   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (assetModel) TableName() string { return "assets" }

func (m assetModel) toAPI() Asset {
	return Asset{
		ID:           m.ID,
		Name:         m.Name,
		Type:         m.Type,
		Status:       m.Status,
		ProducesEggs: m.ProducesEggs,
		IsLocation:   m.IsLocation,
		IsFixed:      m.IsFixed,
		Attributes:   mapFromJSONMap(m.Attributes),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type logModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type        string    `gorm:"type:text;not null"`
	Name        string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"type:timestamptz;not null"`
	Status      string    `gorm:"type:text;not null"`
	IsMovement  bool      `gorm:"not null"`
	Quick       *string   `gorm:"type:text"`
	NotesValue  string    `gorm:"type:text"`
	NotesFormat string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (logModel) TableName() string { return "logs" }

func (m logModel) toAPI() Log {
	out := Log{
		ID:         m.ID,
		Type:       m.Type,
		Name:       m.Name,
		Timestamp:  m.Timestamp,
		Status:     m.Status,
		IsMovement: m.IsMovement,
		CreatedAt:  m.CreatedAt,
	}
	if m.Quick != nil {
		out.Quick = *m.Quick
	}
	return out
}

type logAssetModel struct {
	LogID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Delta   int       `gorm:"primaryKey"`
	AssetID uuid.UUID `gorm:"type:uuid;not null"`
}

func (logAssetModel) TableName() string { return "log_assets" }

type logLocationModel struct {
	LogID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Delta      int       `gorm:"primaryKey"`
	LocationID uuid.UUID `gorm:"type:uuid;not null"`
}

func (logLocationModel) TableName() string { return "log_locations" }

type quantityModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	LogID   uuid.UUID `gorm:"type:uuid;not null"`
	Delta   int       `gorm:"not null"`
	Measure string    `gorm:"type:text;not null"`
	Value   float64   `gorm:"type:numeric;not null"`
	Units   string    `gorm:"type:text"`
}

func (quantityModel) TableName() string { return "quantities" }

func mapFromJSONMap(src datatypes.JSONMap) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func toJSONMap(src map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range src {
		out[k] = v
	}
	return out
}
