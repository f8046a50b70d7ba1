package farm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmquick/pkg/db"
)

// currentMovementsSQL selects, per asset, its latest done movement log that
// is not in the future. Parameters: status, now.
const currentMovementsSQL = `
WITH latest AS (
	SELECT DISTINCT ON (la.asset_id) la.asset_id, l.id AS log_id
	FROM log_assets la
	JOIN logs l ON l.id = la.log_id
	WHERE l.is_movement AND l.status = ? AND l.timestamp <= ?
	ORDER BY la.asset_id, l.timestamp DESC, l.created_at DESC, l.id DESC
)`

const locationsOfSQL = `
SELECT ll.location_id
FROM log_locations ll
WHERE ll.log_id = (
	SELECT l.id
	FROM logs l
	JOIN log_assets la ON la.log_id = l.id
	WHERE la.asset_id = $1 AND l.is_movement AND l.status = $2 AND l.timestamp <= $3
	ORDER BY l.timestamp DESC, l.created_at DESC, l.id DESC
	LIMIT 1
)
AND NOT EXISTS (SELECT 1 FROM assets a WHERE a.id = $1 AND a.is_fixed)
ORDER BY ll.delta
`

// LocationsOf returns the locations of the asset's most recent done movement.
// Fixed assets and assets that never moved have no location.
func (s *Store) LocationsOf(ctx context.Context, assetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := db.Select(ctx, s.pool, &ids, locationsOfSQL, assetID, LogStatusDone, s.now()); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// RecordMovement creates a movement log placing assets at locations.
func (s *Store) RecordMovement(ctx context.Context, mv Movement) (Log, error) {
	if len(mv.Assets) == 0 {
		return Log{}, fmt.Errorf("%w: at least one asset is required", ErrInvalid)
	}
	if len(mv.Locations) == 0 {
		return Log{}, fmt.Errorf("%w: at least one location is required", ErrInvalid)
	}
	switch mv.Status {
	case "":
		mv.Status = LogStatusDone
	case LogStatusDone, LogStatusPending:
	default:
		return Log{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, mv.Status)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	assets, err := s.assetsByID(ctx, mv.Assets)
	if err != nil {
		return Log{}, err
	}
	locations, err := s.assetsByID(ctx, mv.Locations)
	if err != nil {
		return Log{}, err
	}
	for _, loc := range locations {
		if !loc.IsLocation {
			return Log{}, fmt.Errorf("%w: asset %s is not a location", ErrInvalid, loc.ID)
		}
	}

	name := strings.TrimSpace(mv.Name)
	if name == "" {
		name = movementName(assets, locations)
	}
	timestamp := s.now()
	if mv.Timestamp != nil {
		timestamp = mv.Timestamp.UTC()
	}

	model := logModel{
		ID:         uuid.New(),
		Type:       LogTypeActivity,
		Name:       name,
		Timestamp:  timestamp,
		Status:     mv.Status,
		IsMovement: true,
		CreatedAt:  s.now(),
	}
	err = s.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertLog(tx, model, mv.Assets, mv.Locations, nil)
	})
	if err != nil {
		return Log{}, err
	}
	return model.toAPI(), nil
}

// assetsByID loads every id in order, failing with ErrNotFound on the first
// unknown one.
func (s *Store) assetsByID(ctx context.Context, ids []uuid.UUID) ([]assetModel, error) {
	var models []assetModel
	if err := s.orm.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]assetModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	out := make([]assetModel, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		out = append(out, m)
	}
	return out, nil
}

func movementName(assets, locations []assetModel) string {
	return "Move " + joinNames(assets) + " to " + joinNames(locations)
}

func joinNames(models []assetModel) string {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
