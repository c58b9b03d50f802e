package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-pubsub/internal/microservices/management/models"
)

type AuditPG struct {
	pool *pgxpool.Pool
}

func NewAuditPG(pool *pgxpool.Pool) *AuditPG { return &AuditPG{pool: pool} }

func (r *AuditPG) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS audit_log (
  id          BIGSERIAL PRIMARY KEY,
  received_at TIMESTAMPTZ NOT NULL,
  topic       TEXT NOT NULL,
  pedido_id   INTEGER,
  mesa        INTEGER,
  kind        TEXT NOT NULL,
  action      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_pedido_idx ON audit_log (pedido_id, received_at);
`)
	return err
}

func (r *AuditPG) Append(ctx context.Context, e models.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO audit_log (received_at, topic, pedido_id, mesa, kind, action)
VALUES ($1,$2,$3,$4,$5,$6)
`, e.ReceivedAt, e.Topic, e.OrderID, e.Table, string(e.Kind), e.Action)
	return err
}

// Timeline returns the stored rows of one order, oldest first.
func (r *AuditPG) Timeline(ctx context.Context, orderID, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
SELECT received_at, topic, pedido_id, mesa, kind, action
FROM audit_log WHERE pedido_id=$1
ORDER BY received_at ASC, id ASC
LIMIT $2 OFFSET $3
`, orderID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditEntry, error) {
		var (
			e    models.AuditEntry
			kind string
			at   time.Time
		)
		if err := row.Scan(&at, &e.Topic, &e.OrderID, &e.Table, &kind, &e.Action); err != nil {
			return models.AuditEntry{}, err
		}
		e.ReceivedAt = at.UTC()
		e.Kind = models.EntryKind(kind)
		return e, nil
	})
}
