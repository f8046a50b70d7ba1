package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"farmquick/pkg/bus"
	"farmquick/pkg/db"
	"farmquick/pkg/render"
	"farmquick/pkg/s3"
	"farmquick/pkg/telemetry"
	"farmquick/services/api"
	"farmquick/services/audit"
	"farmquick/services/farm"
	"farmquick/services/quick"
	"farmquick/services/quickd/internal/config"
)

const serviceName = "quickd"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Farm quick forms service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	return cmd
}

// setup loads configuration, installs the process logger and opens the
// database pool.
func setup(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	log.Logger = logger.With().Str("service", serviceName).Logger()
	zerolog.DefaultContextLogger = &log.Logger

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, pool, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			results, err := db.Migrate(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			for _, res := range results {
				log.Info().Int64("version", res.Source.Version).Dur("duration", res.Duration).Msg("migration applied")
			}
			log.Info().Int("applied", len(results)).Msg("database up to date")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load assets and movements from a YAML fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			seed, err := farm.LoadSeedFile(file)
			if err != nil {
				return err
			}

			_, pool, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			orm, err := db.OpenORM(pool)
			if err != nil {
				return err
			}
			store, err := farm.New(orm, pool, nil)
			if err != nil {
				return err
			}

			res, err := store.Seed(ctx, seed)
			if err != nil {
				return err
			}
			for _, key := range sortedKeys(res.Assets) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, res.Assets[key])
			}
			log.Info().Int("assets", len(res.Assets)).Int("movements", len(res.Movements)).Msg("seed loaded")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the YAML seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quick forms HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrate {
		if _, err := db.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	shutdownOtel, middleware, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Logger:      log.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	orm, err := db.OpenORM(pool)
	if err != nil {
		return err
	}

	var eventBus *bus.Bus
	var publisher farm.Publisher
	if cfg.NATSURL != "" {
		eventBus, err = bus.New(cfg.NATSURL, nats.Name(serviceName))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer eventBus.Close()
		publisher = eventBus
	} else {
		log.Warn().Msg("NATS_URL not set; log events disabled")
	}

	store, err := farm.New(orm, pool, publisher)
	if err != nil {
		return err
	}
	producers, err := farm.NewProducerCache(store, cfg.ProducerCacheTTL)
	if err != nil {
		return err
	}

	engine, err := render.New()
	if err != nil {
		return err
	}
	eggs, err := quick.NewEggsForm(producers, store, store, engine, cfg.FormOptions())
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := api.New(store, []api.Form{eggs}, api.Config{
		DefaultLocation: loc,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimit:       cfg.RateLimit,
		Middleware:      middleware,
		Registry:        registry,
		AssetsChanged:   producers.Invalidate,
	})
	if err != nil {
		return err
	}
	handler, err := a.Routes()
	if err != nil {
		return err
	}

	if eventBus != nil && cfg.AuditEnabled {
		ingestor, err := newIngestor(ctx, cfg, pool, eventBus)
		if err != nil {
			return err
		}
		if err := ingestor.Start(ctx); err != nil {
			return fmt.Errorf("start audit ingestor: %w", err)
		}
		defer func() {
			if err := ingestor.Close(); err != nil {
				log.Error().Err(err).Msg("close audit ingestor")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting quickd")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
	return nil
}

func newIngestor(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, eventBus *bus.Bus) (*audit.Ingestor, error) {
	if cfg.ArchiveBucket == "" {
		return audit.NewIngestor(pool, eventBus, nil, "")
	}
	client, err := s3.NewClientFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return audit.NewIngestor(pool, eventBus, client, cfg.ArchiveBucket)
}

func sortedKeys(m map[string]uuid.UUID) []string {
	return slices.Sorted(maps.Keys(m))
}
