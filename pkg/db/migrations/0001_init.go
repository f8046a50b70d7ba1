package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type Asset struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name         string            `gorm:"type:text;not null"`
	Type         string            `gorm:"type:text;not null"`
	Status       string            `gorm:"type:text;not null;default:'active';index:idx_assets_producers,priority:1"`
	ProducesEggs bool              `gorm:"not null;default:false;index:idx_assets_producers,priority:2"`
	IsLocation   bool              `gorm:"not null;default:false"`
	IsFixed      bool              `gorm:"not null;default:false"`
	Attributes   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Log struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type        string    `gorm:"type:text;not null;index"`
	Name        string    `gorm:"type:text;not null"`
	Timestamp   time.Time `gorm:"type:timestamptz;not null;index"`
	Status      string    `gorm:"type:text;not null;default:'done'"`
	IsMovement  bool      `gorm:"not null;default:false"`
	Quick       *string   `gorm:"type:text;index"`
	NotesValue  string    `gorm:"type:text"`
	NotesFormat string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

type LogAsset struct {
	LogID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Delta   int       `gorm:"primaryKey"`
	AssetID uuid.UUID `gorm:"type:uuid;not null;index"`
	Log     Log       `gorm:"foreignKey:LogID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Asset   Asset     `gorm:"foreignKey:AssetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type LogLocation struct {
	LogID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Delta      int       `gorm:"primaryKey"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Log        Log       `gorm:"foreignKey:LogID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Location   Asset     `gorm:"foreignKey:LocationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Quantity struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	LogID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Delta   int       `gorm:"not null"`
	Measure string    `gorm:"type:text;not null"`
	Value   float64   `gorm:"type:numeric;not null"`
	Units   string    `gorm:"type:text"`
	Log     Log       `gorm:"foreignKey:LogID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

type Audit struct {
	ID      int64             `gorm:"type:bigserial;primaryKey"`
	Actor   string            `gorm:"type:text;not null"`
	Action  string            `gorm:"type:text;not null"`
	Obj     string            `gorm:"type:text;index"`
	Details datatypes.JSONMap `gorm:"type:jsonb"`
	At      time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (Audit) TableName() string { return "audit" }

func openGorm(tx *sql.Tx) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openGorm(tx)
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Asset{},
		&Log{},
		&LogAsset{},
		&LogLocation{},
		&Quantity{},
		&Audit{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	for _, c := range []struct {
		model any
		name  string
	}{
		{&LogAsset{}, "Log"},
		{&LogAsset{}, "Asset"},
		{&LogLocation{}, "Log"},
		{&LogLocation{}, "Location"},
		{&Quantity{}, "Log"},
	} {
		if m.HasConstraint(c.model, c.name) {
			continue
		}
		if err := m.CreateConstraint(c.model, c.name); err != nil {
			return err
		}
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := openGorm(tx)
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&Audit{},
		&Quantity{},
		&LogLocation{},
		&LogAsset{},
		&Log{},
		&Asset{},
	)
}
