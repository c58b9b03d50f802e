package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCounter stores the counter as one row of the counters table, so several
// order-taking terminals can share a sequence.
type PGCounter struct {
	pool *pgxpool.Pool
	key  string
}

func NewPGCounter(pool *pgxpool.Pool) *PGCounter {
	return &PGCounter{pool: pool, key: CounterKey}
}

func (r *PGCounter) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS counters (
    key        TEXT PRIMARY KEY,
    value      BIGINT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("create counters table: %w", err)
	}
	return nil
}

func (r *PGCounter) Load(ctx context.Context) (int, bool, error) {
	var v int64
	err := r.pool.QueryRow(ctx, `SELECT value FROM counters WHERE key=$1`, r.key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load counter: %w", err)
	}
	return int(v), true, nil
}

func (r *PGCounter) Save(ctx context.Context, last int) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO counters (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, r.key, int64(last))
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}
