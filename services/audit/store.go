package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"farmquick/pkg/db"
)

type entry struct {
	Actor   string
	Action  string
	Obj     string
	Details map[string]any
}

type entryStore interface {
	audited(ctx context.Context, obj string) (bool, error)
	insert(ctx context.Context, e entry) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) audited(ctx context.Context, obj string) (bool, error) {
	var exists bool
	err := db.Get(ctx, s.pool, &exists, `
SELECT EXISTS (
	SELECT 1 FROM audit WHERE action = $1 AND obj = $2
)
`, auditAction, obj)
	return exists, err
}

func (s *pgStore) insert(ctx context.Context, e entry) error {
	detailsBytes, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, s.pool, `
INSERT INTO audit (actor, action, obj, details)
VALUES ($1, $2, $3, $4::jsonb)
`, e.Actor, e.Action, e.Obj, string(detailsBytes))
	return err
}
