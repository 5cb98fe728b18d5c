package tenantdb

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/port/tenantpool"
	"github.com/vendalink/vendalink/internal/resilience"
)

// Factory dials tenant databases. A weighted semaphore caps concurrent dials
// across all tenants so a burst of first logins cannot dial-storm, and a
// per-tenant circuit breaker makes a down tenant database fail fast instead
// of eating the full dial timeout on every attempt.
type Factory struct {
	cfg        config.TenantPool
	breakerCfg config.Breaker
	dials      *semaphore.Weighted

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

var _ tenantpool.Factory = (*Factory)(nil)

// NewFactory creates a Factory with the given pool and breaker settings.
func NewFactory(cfg config.TenantPool, breakerCfg config.Breaker) *Factory {
	limit := cfg.MaxDials
	if limit < 1 {
		limit = 1
	}
	return &Factory{
		cfg:        cfg,
		breakerCfg: breakerCfg,
		dials:      semaphore.NewWeighted(int64(limit)),
		breakers:   make(map[string]*resilience.Breaker),
	}
}

// Dial establishes a pool for the tenant and wraps it in a Conn.
func (f *Factory) Dial(ctx context.Context, tenantID string, coords tenant.Coordinates) (tenantpool.Conn, error) {
	var conn *Conn
	err := f.breaker(tenantID).Execute(func() error {
		if err := f.dials.Acquire(ctx, 1); err != nil {
			return err
		}
		defer f.dials.Release(1)

		pool, err := newPool(ctx, coords, f.cfg)
		if err != nil {
			return err
		}
		conn = &Conn{pool: pool, queryTimeout: f.cfg.QueryTimeout}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dial tenant %s: %w", tenantID, err)
	}
	return conn, nil
}

func (f *Factory) breaker(tenantID string) *resilience.Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.breakers[tenantID]
	if !ok {
		b = resilience.NewBreaker(f.breakerCfg.MaxFailures, f.breakerCfg.Timeout)
		f.breakers[tenantID] = b
	}
	return b
}
