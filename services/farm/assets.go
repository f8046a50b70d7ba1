package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmquick/services/quick"
)

// ErrInvalid marks input rejected by the store.
var ErrInvalid = errors.New("invalid input")

const defaultListLimit = 500

// CreateAsset inserts a new asset. Status defaults to active.
func (s *Store) CreateAsset(ctx context.Context, in NewAsset) (Asset, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	if in.Name == "" {
		return Asset{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Type == "" {
		return Asset{}, fmt.Errorf("%w: type is required", ErrInvalid)
	}
	switch in.Status {
	case "":
		in.Status = StatusActive
	case StatusActive, StatusArchived:
	default:
		return Asset{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, in.Status)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := s.now()
	model := assetModel{
		ID:           uuid.New(),
		Name:         in.Name,
		Type:         in.Type,
		Status:       in.Status,
		ProducesEggs: in.ProducesEggs,
		IsLocation:   in.IsLocation,
		IsFixed:      in.IsFixed,
		Attributes:   toJSONMap(in.Attributes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return Asset{}, err
	}
	return model.toAPI(), nil
}

// GetAsset loads one asset by id.
func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (Asset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var model assetModel
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, err
	}
	return model.toAPI(), nil
}

// ListAssets returns assets matching filter ordered by name.
func (s *Store) ListAssets(ctx context.Context, filter AssetFilter) ([]Asset, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	query := s.orm.WithContext(ctx).Model(&assetModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ProducesEggs != nil {
		query = query.Where("produces_eggs = ?", *filter.ProducesEggs)
	}
	if filter.Location != nil {
		query = query.Where("NOT is_fixed").
			Where("id IN ("+currentMovementsSQL+" SELECT latest.asset_id FROM latest JOIN log_locations ll ON ll.log_id = latest.log_id WHERE ll.location_id = ?)",
				LogStatusDone, s.now(), *filter.Location)
	}

	var models []assetModel
	if err := query.Order("name ASC").Order("id ASC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]Asset, 0, len(models))
	for _, m := range models {
		out = append(out, m.toAPI())
	}
	return out, nil
}

// FindEggProducers lists active assets flagged as egg producers.
func (s *Store) FindEggProducers(ctx context.Context) ([]quick.AssetOption, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var models []assetModel
	err := s.orm.WithContext(ctx).
		Select("id", "name").
		Where("status = ? AND produces_eggs", StatusActive).
		Order("name ASC").Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]quick.AssetOption, 0, len(models))
	for _, m := range models {
		out = append(out, quick.AssetOption{ID: m.ID, Label: m.Name})
	}
	return out, nil
}
