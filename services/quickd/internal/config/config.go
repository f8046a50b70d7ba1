package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"farmquick/services/quick"
)

// Config holds runtime configuration for quickd.
type Config struct {
	Addr             string        `env:"ADDR,default=:8080"`
	DBDSN            string        `env:"DB_DSN,required"`
	NATSURL          string        `env:"NATS_URL"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS"`
	RateLimit        int           `env:"RATE_LIMIT,default=120"`
	DefaultTimezone  string        `env:"DEFAULT_TIMEZONE,default=UTC"`
	LogLevel         string        `env:"LOG_LEVEL,default=info"`
	LogFormat        string        `env:"LOG_FORMAT,default=console"`
	ProducerCacheTTL time.Duration `env:"PRODUCER_CACHE_TTL,default=30s"`
	AuditEnabled     bool          `env:"AUDIT_ENABLED,default=true"`
	ArchiveBucket    string        `env:"ARCHIVE_BUCKET"`

	Eggs Eggs `env:", prefix=EGGS_"`
}

// Eggs selects the eggs form variant.
type Eggs struct {
	CollectDate        bool `env:"COLLECT_DATE,default=true"`
	CollectNotes       bool `env:"COLLECT_NOTES,default=true"`
	ResolveLocations   bool `env:"RESOLVE_LOCATIONS,default=true"`
	ResolveConcurrency int  `env:"RESOLVE_CONCURRENCY,default=8"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	return loadWith(ctx, envconfig.OsLookuper())
}

func loadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT %d", c.RateLimit)
	}
	if c.Eggs.ResolveConcurrency < 0 {
		return fmt.Errorf("invalid EGGS_RESOLVE_CONCURRENCY %d", c.Eggs.ResolveConcurrency)
	}
	return nil
}

// Location resolves DefaultTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.DefaultTimezone, err)
	}
	return loc, nil
}

// FormOptions returns the eggs form variant.
func (c Config) FormOptions() quick.Options {
	return quick.Options{
		CollectDate:        c.Eggs.CollectDate,
		CollectNotes:       c.Eggs.CollectNotes,
		ResolveLocations:   c.Eggs.ResolveLocations,
		ResolveConcurrency: c.Eggs.ResolveConcurrency,
	}
}
