// Package tenantdb builds and queries per-tenant database connection pools.
package tenantdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain/tenant"
)

// newPool creates a pgxpool scoped to one tenant's database and schema.
// The dial is bounded by cfg.DialTimeout so a stalled tenant database cannot
// hold the caller indefinitely.
func newPool(ctx context.Context, coords tenant.Coordinates, cfg config.TenantPool) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(coords.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse tenant dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.DialTimeout
	if coords.Schema != "" && coords.Schema != "public" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = coords.Schema
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create tenant pool: %w", err)
	}

	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping tenant db: %w", err)
	}

	return pool, nil
}
