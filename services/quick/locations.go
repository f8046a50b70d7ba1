package quick

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultResolveConcurrency = 8

// resolveLocations looks up every asset's locations and returns their union
// in asset order, each location once. The first resolver error is returned
// as is.
func resolveLocations(ctx context.Context, resolver LocationResolver, assets []uuid.UUID, limit int) ([]uuid.UUID, error) {
	if len(assets) == 0 {
		return []uuid.UUID{}, nil
	}
	if limit <= 0 {
		limit = defaultResolveConcurrency
	}

	results := make([][]uuid.UUID, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, assetID := range assets {
		g.Go(func() error {
			locations, err := resolver.LocationsOf(gctx, assetID)
			if err != nil {
				return err
			}
			results[i] = locations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []uuid.UUID
	for _, locations := range results {
		all = append(all, locations...)
	}
	return uniqueInOrder(all), nil
}

func uniqueInOrder(ids []uuid.UUID) []uuid.UUID {
	seen := mapset.NewThreadUnsafeSetWithSize[uuid.UUID](len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen.Add(id) {
			out = append(out, id)
		}
	}
	return out
}
