package farm

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"farmquick/pkg/db"
)

// ErrNotFound is returned when a requested asset does not exist.
var ErrNotFound = errors.New("not found")

// Publisher emits farm events. *bus.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subj, msgID string, v any) error
}

// Store is the PostgreSQL backed asset and log repository. It implements the
// quick form's AssetQuery, LocationResolver and LogSink.
type Store struct {
	orm  *gorm.DB
	pool *pgxpool.Pool
	bus  Publisher
	now  func() time.Time
}

// New constructs a Store. publisher may be nil to disable events.
func New(orm *gorm.DB, pool *pgxpool.Pool, publisher Publisher) (*Store, error) {
	if orm == nil {
		return nil, errors.New("orm is required")
	}
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	return &Store{
		orm:  orm,
		pool: pool,
		bus:  publisher,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return db.Ping(ctx, s.pool)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.DefaultTimeout)
}
