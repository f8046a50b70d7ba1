package quick

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type fakeAssets struct {
	producers []AssetOption
	err       error
	calls     int
}

func (f *fakeAssets) FindEggProducers(context.Context) ([]AssetOption, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.producers, nil
}

type fakeLocations struct {
	mu    sync.Mutex
	byID  map[uuid.UUID][]uuid.UUID
	err   error
	asked []uuid.UUID
}

func (f *fakeLocations) LocationsOf(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type fakeSink struct {
	records []Record
	err     error
}

func (f *fakeSink) Create(_ context.Context, rec Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

// stubText renders lines without the template engine so the form can be
// tested on its own.
type stubText struct{}

func (stubText) RenderLine(name string, data any) (string, error) {
	m, _ := data.(map[string]any)
	switch name {
	case harvestNameTemplate:
		return fmt.Sprintf("Collected %d egg(s)", m["Quantity"]), nil
	case assetsHelpTemplate:
		return fmt.Sprintf("Select the layer assets (%d).", m["Count"]), nil
	case noProducersTemplate:
		return "No layer assets found.", nil
	default:
		return "", fmt.Errorf("unknown template %s", strings.TrimSpace(name))
	}
}
