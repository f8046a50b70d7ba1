package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"farmquick/services/farm"
	"farmquick/services/quick"
)

// Form is a quick form served under /v1/quick/{id}.
type Form interface {
	Definition() quick.Definition
	Render(ctx context.Context, rc quick.RenderContext) (quick.Schema, error)
	Submit(ctx context.Context, v quick.Values, rc quick.RenderContext) (quick.Record, error)
}

// Store is the farm repository used by the supporting endpoints.
type Store interface {
	Ping(ctx context.Context) error
	CreateAsset(ctx context.Context, in farm.NewAsset) (farm.Asset, error)
	ListAssets(ctx context.Context, filter farm.AssetFilter) ([]farm.Asset, error)
	RecordMovement(ctx context.Context, mv farm.Movement) (farm.Log, error)
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	// DefaultLocation is used when a request names no timezone.
	DefaultLocation *time.Location
	AllowedOrigins  []string
	// RateLimit is the per client request budget per minute; 0 disables it.
	RateLimit int
	// Middleware wraps every route, typically tracing and request logging.
	Middleware func(http.Handler) http.Handler
	// Registry receives the API metrics and backs /metrics.
	Registry *prometheus.Registry
	// AssetsChanged is called after an asset is created.
	AssetsChanged func()
}

// API wires the forms, the farm store and configuration for HTTP handlers.
type API struct {
	store   Store
	forms   map[string]Form
	order   []string
	config  Config
	metrics *metrics
}

// New initialises the API layer with defaults applied to cfg.
func New(store Store, forms []Form, cfg Config) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if len(forms) == 0 {
		return nil, errors.New("at least one form is required")
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	a := &API{
		store:   store,
		forms:   make(map[string]Form, len(forms)),
		config:  cfg,
		metrics: newMetrics(cfg.Registry),
	}
	for _, f := range forms {
		if f == nil {
			return nil, errors.New("nil form")
		}
		id := f.Definition().ID
		if _, dup := a.forms[id]; dup {
			return nil, errors.New("duplicate form " + id)
		}
		a.forms[id] = f
		a.order = append(a.order, id)
	}
	return a, nil
}
