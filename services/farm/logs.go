package farm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"farmquick/services/quick"
)

// Create persists rec as a new done log. Every call creates a distinct log.
// The LogCreated event is published after commit; publish failures are
// logged and do not fail the call.
func (s *Store) Create(ctx context.Context, rec quick.Record) error {
	_, err := s.CreateLog(ctx, rec)
	return err
}

// CreateLog is Create returning the stored log.
func (s *Store) CreateLog(ctx context.Context, rec quick.Record) (Log, error) {
	if strings.TrimSpace(rec.Type) == "" {
		return Log{}, errors.New("log type is required")
	}

	model := logModel{
		ID:        uuid.New(),
		Type:      rec.Type,
		Name:      rec.Name,
		Timestamp: s.now(),
		Status:    LogStatusDone,
		CreatedAt: s.now(),
	}
	if rec.Timestamp != nil {
		model.Timestamp = rec.Timestamp.UTC()
	}
	if rec.Quick != "" {
		q := rec.Quick
		model.Quick = &q
	}
	if rec.Notes != nil {
		model.NotesValue = rec.Notes.Value
		model.NotesFormat = rec.Notes.Format
	}

	quantities := make([]quantityModel, 0, len(rec.Quantity))
	for i, q := range rec.Quantity {
		quantities = append(quantities, quantityModel{
			ID:      uuid.New(),
			LogID:   model.ID,
			Delta:   i,
			Measure: q.Measure,
			Value:   q.Value,
			Units:   q.Units,
		})
	}

	txCtx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.orm.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return insertLog(tx, model, rec.Assets, rec.Locations, quantities)
	})
	if err != nil {
		return Log{}, err
	}

	s.publish(ctx, LogsCreatedSubject, model.ID.String(), newLogCreated(model, rec))
	return model.toAPI(), nil
}

func insertLog(tx *gorm.DB, model logModel, assets, locations []uuid.UUID, quantities []quantityModel) error {
	if err := tx.Create(&model).Error; err != nil {
		return err
	}
	if len(assets) > 0 {
		rows := make([]logAssetModel, 0, len(assets))
		for i, id := range assets {
			rows = append(rows, logAssetModel{LogID: model.ID, Delta: i, AssetID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(locations) > 0 {
		rows := make([]logLocationModel, 0, len(locations))
		for i, id := range locations {
			rows = append(rows, logLocationModel{LogID: model.ID, Delta: i, LocationID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(quantities) > 0 {
		if err := tx.Create(&quantities).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) publish(ctx context.Context, subject, msgID string, payload any) {
	if s.bus == nil || subject == "" {
		return
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	if err := s.bus.Publish(ctx, subject, msgID, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Str("msg_id", msgID).Msg("publish event")
	}
}
