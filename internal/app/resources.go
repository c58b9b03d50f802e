package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"restaurant-pubsub/internal/config"
	"restaurant-pubsub/internal/connections/cache"
	"restaurant-pubsub/internal/connections/database"
	mgmtrepo "restaurant-pubsub/internal/microservices/management/repository"
	orderrepo "restaurant-pubsub/internal/microservices/order/repository"
)

// resources opens Postgres and Redis on first use and shares them between
// agents.
type resources struct {
	cfg  *config.Config
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func newResources(cfg *config.Config) *resources { return &resources{cfg: cfg} }

func (r *resources) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if r.pool == nil {
		pool, err := database.Connect(ctx, r.cfg.Database)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}
	return r.pool, nil
}

func (r *resources) redis(ctx context.Context) (*redis.Client, error) {
	if r.rdb == nil {
		rdb, err := cache.Connect(ctx, r.cfg.Redis)
		if err != nil {
			return nil, err
		}
		r.rdb = rdb
	}
	return r.rdb, nil
}

func (r *resources) counterStore(ctx context.Context) (orderrepo.CounterStore, error) {
	switch r.cfg.Store.Counter {
	case config.StoreFile:
		return orderrepo.NewFileCounter(r.cfg.Store.CounterFile), nil
	case config.StoreMemory:
		return orderrepo.NewMemoryCounter(), nil
	case config.StorePostgres:
		pool, err := r.postgres(ctx)
		if err != nil {
			return nil, fmt.Errorf("counter store: %w", err)
		}
		pg := orderrepo.NewPGCounter(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("counter schema: %w", err)
		}
		return pg, nil
	case config.StoreRedis:
		rdb, err := r.redis(ctx)
		if err != nil {
			return nil, fmt.Errorf("counter store: %w", err)
		}
		return orderrepo.NewRedisCounter(rdb), nil
	default:
		return nil, fmt.Errorf("unknown counter store %q", r.cfg.Store.Counter)
	}
}

// auditMirror returns nil when no durable audit store is configured.
func (r *resources) auditMirror(ctx context.Context) (mgmtrepo.Mirror, error) {
	if r.cfg.Store.Audit != config.StorePostgres {
		return nil, nil
	}
	pool, err := r.postgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	pg := mgmtrepo.NewAuditPG(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return pg, nil
}

func (r *resources) close() {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	if r.rdb != nil {
		_ = r.rdb.Close()
		r.rdb = nil
	}
}
