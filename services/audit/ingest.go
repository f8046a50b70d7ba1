package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"farmquick/pkg/s3"
	"farmquick/services/farm"
)

const (
	durableName = "audit-logs"
	auditActor  = "quickform"
	auditAction = "log_created"
)

// Subscriber delivers bus messages to a handler. *bus.Bus satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, subj, durable string, fn func(ctx context.Context, data []byte) error) (io.Closer, error)
}

// Archiver stores archived events. *s3.Client satisfies it.
type Archiver interface {
	PutObject(ctx context.Context, bucket string, obj s3.Object) error
}

// Ingestor records every created log in the audit table and, when an archive
// bucket is configured, keeps a compressed copy of the event in object storage.
type Ingestor struct {
	store   entryStore
	bus     Subscriber
	archive Archiver
	bucket  string

	subMu sync.Mutex
	sub   io.Closer
}

// NewIngestor constructs an Ingestor. archive may be nil, in which case
// events are only audited.
func NewIngestor(pool *pgxpool.Pool, sub Subscriber, archive Archiver, bucket string) (*Ingestor, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	if sub == nil {
		return nil, errors.New("bus is required")
	}
	if archive != nil && bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	return &Ingestor{
		store:   &pgStore{pool: pool},
		bus:     sub,
		archive: archive,
		bucket:  bucket,
	}, nil
}

// Start subscribes to log creation events and processes them until ctx is
// cancelled.
func (i *Ingestor) Start(ctx context.Context) error {
	if i == nil {
		return errors.New("nil ingestor")
	}

	sub, err := i.bus.Subscribe(ctx, farm.LogsCreatedSubject, durableName, i.handleLogCreated)
	if err != nil {
		return err
	}

	i.subMu.Lock()
	i.sub = sub
	i.subMu.Unlock()
	return nil
}

// Close stops the underlying subscription if it was created.
func (i *Ingestor) Close() error {
	if i == nil {
		return nil
	}

	i.subMu.Lock()
	defer i.subMu.Unlock()

	if i.sub == nil {
		return nil
	}
	err := i.sub.Close()
	i.sub = nil
	return err
}

// handleLogCreated is idempotent: a redelivered event whose log is already
// audited is acknowledged without side effects.
func (i *Ingestor) handleLogCreated(ctx context.Context, data []byte) error {
	var evt farm.LogCreated
	if err := json.Unmarshal(data, &evt); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if evt.LogID == uuid.Nil {
		return errors.New("log_id missing from event")
	}

	obj := evt.LogID.String()
	done, err := i.store.audited(ctx, obj)
	if err != nil {
		return err
	}
	if done {
		log.Debug().Str("log_id", obj).Msg("log already audited")
		return nil
	}

	if i.archive != nil {
		archived, err := archiveObject(evt, data)
		if err != nil {
			return err
		}
		if err := i.archive.PutObject(ctx, i.bucket, archived); err != nil {
			return fmt.Errorf("archive %s: %w", archived.Key, err)
		}
	}

	var details map[string]any
	if err := json.Unmarshal(data, &details); err != nil {
		return err
	}
	if err := i.store.insert(ctx, entry{Actor: auditActor, Action: auditAction, Obj: obj, Details: details}); err != nil {
		return err
	}

	log.Info().Str("log_id", obj).Str("type", evt.Type).Str("quick", evt.Quick).Msg("log audited")
	return nil
}
