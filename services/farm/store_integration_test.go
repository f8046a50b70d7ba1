//go:build integration

package farm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orlangure/gnomock"
	pgpreset "github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmquick/pkg/db"
	"farmquick/services/quick"
)

type capturePublisher struct {
	subjects []string
	ids      []string
}

func (p *capturePublisher) Publish(_ context.Context, subj, msgID string, _ any) error {
	p.subjects = append(p.subjects, subj)
	p.ids = append(p.ids, msgID)
	return nil
}

func newIntegrationStore(t *testing.T) (*Store, *capturePublisher) {
	t.Helper()

	container, err := gnomock.Start(pgpreset.Preset(
		pgpreset.WithUser("farm", "farm"),
		pgpreset.WithDatabase("farm"),
	))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gnomock.Stop(container) })

	ctx := context.Background()
	dsn := fmt.Sprintf("postgres://farm:farm@%s/farm?sslmode=disable", container.DefaultAddress())
	pool, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.Migrate(ctx, pool)
	require.NoError(t, err)

	orm, err := db.OpenORM(pool)
	require.NoError(t, err)

	pub := &capturePublisher{}
	store, err := New(orm, pool, pub)
	require.NoError(t, err)
	return store, pub
}

func TestStoreEggsHarvestEndToEnd(t *testing.T) {
	store, pub := newIntegrationStore(t)
	ctx := context.Background()

	seed, err := LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	res, err := store.Seed(ctx, seed)
	require.NoError(t, err)

	chickens, hens, coop := res.Assets["chickens"], res.Assets["hens"], res.Assets["coop"]

	producers, err := store.FindEggProducers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []quick.AssetOption{{ID: chickens, Label: "Chickens"}, {ID: hens, Label: "Hens"}}, producers)

	locs, err := store.LocationsOf(ctx, chickens)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{coop}, locs)

	locs, err = store.LocationsOf(ctx, coop)
	require.NoError(t, err)
	assert.Empty(t, locs)

	inCoop, err := store.ListAssets(ctx, AssetFilter{Location: &coop})
	require.NoError(t, err)
	require.Len(t, inCoop, 2)
	assert.Equal(t, "Chickens", inCoop[0].Name)

	form, err := quick.NewEggsForm(store, store, store, stubLines{}, quick.Options{ResolveLocations: true})
	require.NoError(t, err)
	rec, err := form.Submit(ctx, quick.Values{
		Quantity: quick.NumberOf(12),
		Assets:   quick.Select(chickens, hens),
	}, quick.RenderContext{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{coop}, rec.Locations)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, LogsCreatedSubject, pub.subjects[0])

	var count int
	require.NoError(t, db.Get(ctx, store.pool, &count, `SELECT count(*) FROM logs WHERE quick = 'eggs'`))
	assert.Equal(t, 1, count)

	var value float64
	require.NoError(t, db.Get(ctx, store.pool, &value, `SELECT value FROM quantities WHERE log_id = $1`, uuid.MustParse(pub.ids[0])))
	assert.Equal(t, 12.0, value)
}

func TestStoreLatestMovementWins(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	hen, err := store.CreateAsset(ctx, NewAsset{Name: "Hen", Type: "animal", ProducesEggs: true})
	require.NoError(t, err)
	coop, err := store.CreateAsset(ctx, NewAsset{Name: "Coop", Type: "structure", IsLocation: true})
	require.NoError(t, err)
	yard, err := store.CreateAsset(ctx, NewAsset{Name: "Yard", Type: "land", IsLocation: true})
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	later := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{hen.ID}, Locations: []uuid.UUID{coop.ID}, Timestamp: &past})
	require.NoError(t, err)
	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{hen.ID}, Locations: []uuid.UUID{yard.ID, coop.ID}, Timestamp: &later})
	require.NoError(t, err)
	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{hen.ID}, Locations: []uuid.UUID{coop.ID}, Timestamp: &future})
	require.NoError(t, err)
	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{hen.ID}, Locations: []uuid.UUID{coop.ID}, Status: LogStatusPending})
	require.NoError(t, err)

	locs, err := store.LocationsOf(ctx, hen.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{yard.ID, coop.ID}, locs)

	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{hen.ID}, Locations: []uuid.UUID{hen.ID}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.GetAsset(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFixedAssetHasNoLocation(t *testing.T) {
	store, _ := newIntegrationStore(t)
	ctx := context.Background()

	field, err := store.CreateAsset(ctx, NewAsset{Name: "Field", Type: "land", IsLocation: true})
	require.NoError(t, err)
	barn, err := store.CreateAsset(ctx, NewAsset{Name: "Barn", Type: "structure", IsFixed: true})
	require.NoError(t, err)
	hen, err := store.CreateAsset(ctx, NewAsset{Name: "Hen", Type: "animal", ProducesEggs: true})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = store.RecordMovement(ctx, Movement{Assets: []uuid.UUID{barn.ID, hen.ID}, Locations: []uuid.UUID{field.ID}, Timestamp: &past})
	require.NoError(t, err)

	locs, err := store.LocationsOf(ctx, barn.ID)
	require.NoError(t, err)
	assert.Empty(t, locs)

	locs, err = store.LocationsOf(ctx, hen.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{field.ID}, locs)

	inField, err := store.ListAssets(ctx, AssetFilter{Location: &field.ID})
	require.NoError(t, err)
	require.Len(t, inField, 1)
	assert.Equal(t, hen.ID, inField[0].ID)
}

type stubLines struct{}

func (stubLines) RenderLine(_ string, data any) (string, error) {
	m, _ := data.(map[string]any)
	return fmt.Sprintf("Collected %v egg(s)", m["Quantity"]), nil
}
