package farm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is a YAML fixture of assets and the movements placing them.
// Movements refer to assets by their key in Assets.
type SeedFile struct {
	Assets    map[string]NewAsset `yaml:"assets"`
	Movements []SeedMovement      `yaml:"movements"`
}

// SeedMovement is a movement between seeded assets.
type SeedMovement struct {
	Name      string     `yaml:"name"`
	Assets    []string   `yaml:"assets"`
	Locations []string   `yaml:"locations"`
	Timestamp *time.Time `yaml:"timestamp"`
}

// SeedResult maps seed keys to the ids of the created assets.
type SeedResult struct {
	Assets    map[string]uuid.UUID
	Movements []Log
}

// LoadSeedFile reads and parses a seed fixture.
func LoadSeedFile(path string) (SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, err
	}
	return ParseSeed(raw)
}

// ParseSeed parses a seed fixture, checking that movements only reference
// declared assets.
func ParseSeed(raw []byte) (SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Assets) == 0 {
		return SeedFile{}, errors.New("seed declares no assets")
	}
	for i, mv := range seed.Movements {
		for _, key := range append(append([]string{}, mv.Assets...), mv.Locations...) {
			if _, ok := seed.Assets[key]; !ok {
				return SeedFile{}, fmt.Errorf("movement %d references unknown asset %q", i, key)
			}
		}
	}
	return seed, nil
}

// Seed creates the fixture's assets in key order and then its movements.
func (s *Store) Seed(ctx context.Context, seed SeedFile) (SeedResult, error) {
	res := SeedResult{Assets: make(map[string]uuid.UUID, len(seed.Assets))}

	for _, key := range sortedKeys(seed.Assets) {
		asset, err := s.CreateAsset(ctx, seed.Assets[key])
		if err != nil {
			return res, fmt.Errorf("seed asset %q: %w", key, err)
		}
		res.Assets[key] = asset.ID
	}

	for i, mv := range seed.Movements {
		logEntry, err := s.RecordMovement(ctx, Movement{
			Name:      mv.Name,
			Assets:    resolveKeys(res.Assets, mv.Assets),
			Locations: resolveKeys(res.Assets, mv.Locations),
			Timestamp: mv.Timestamp,
		})
		if err != nil {
			return res, fmt.Errorf("seed movement %d: %w", i, err)
		}
		res.Movements = append(res.Movements, logEntry)
	}
	return res, nil
}

func resolveKeys(ids map[string]uuid.UUID, keys []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		out = append(out, ids[k])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
