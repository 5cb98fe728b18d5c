// Package service contains the business logic of the VendaLink core: tenant
// resolution, session admission control, pool management, and heartbeats.
package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	vlotel "github.com/vendalink/vendalink/internal/adapter/otel"
	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/port/tenantpool"
)

// Registry owns the process-local cache of tenant connection pools. Pools are
// created lazily on first login and reused for the process lifetime unless
// explicitly replaced. The cache is rebuilt on demand after a restart.
type Registry struct {
	factory tenantpool.Factory

	mu    sync.RWMutex
	conns map[string]*registryEntry

	// group serializes pool creation per tenant key so concurrent first
	// logins cannot race two pools into existence for the same tenant.
	group singleflight.Group

	metrics *vlotel.Metrics
}

type registryEntry struct {
	conn        tenantpool.Conn
	fingerprint string
}

// NewRegistry creates an empty registry using the given dial factory.
func NewRegistry(factory tenantpool.Factory) *Registry {
	return &Registry{
		factory: factory,
		conns:   make(map[string]*registryEntry),
	}
}

// SetMetrics attaches metric instruments. Optional.
func (r *Registry) SetMetrics(m *vlotel.Metrics) {
	r.metrics = m
}

// Acquire returns the pool for tenantID, dialing it on first use. A cache hit
// does not validate that coords still match the cached pool: the common path
// (same tenant logging in repeatedly) must be an O(1) hit with no I/O. A
// caller that knows the coordinates changed must use Replace.
func (r *Registry) Acquire(ctx context.Context, tenantID string, coords tenant.Coordinates) (tenantpool.Conn, error) {
	r.mu.RLock()
	e, ok := r.conns[tenantID]
	r.mu.RUnlock()
	if ok {
		return e.conn, nil
	}

	v, err, _ := r.group.Do(tenantID, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have won.
		r.mu.RLock()
		e, ok := r.conns[tenantID]
		r.mu.RUnlock()
		if ok {
			return e.conn, nil
		}

		conn, err := r.factory.Dial(ctx, tenantID, coords)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if cur, ok := r.conns[tenantID]; ok {
			// A Replace registered a pool while this dial was in flight.
			// Its coordinates are newer; discard ours and hand out the
			// registered one so only one pool stays live per tenant.
			r.mu.Unlock()
			conn.Close()
			return cur.conn, nil
		}
		r.conns[tenantID] = &registryEntry{conn: conn, fingerprint: coords.Fingerprint()}
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.PoolsCreated.Add(ctx, 1)
		}
		return conn, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPoolUnavailable, err)
	}
	return v.(tenantpool.Conn), nil
}

// Replace tears down the pool for tenantID and dials a fresh one with the
// supplied coordinates. When the coordinate fingerprint is unchanged the
// existing pool is kept as-is. The old pool is always closed before the new
// one is registered so stale connections never linger behind new coordinates.
func (r *Registry) Replace(ctx context.Context, tenantID string, coords tenant.Coordinates) (tenantpool.Conn, error) {
	fp := coords.Fingerprint()

	r.mu.Lock()
	old, ok := r.conns[tenantID]
	if ok && old.fingerprint == fp {
		r.mu.Unlock()
		return old.conn, nil
	}
	delete(r.conns, tenantID)
	r.mu.Unlock()

	if ok {
		old.conn.Close()
	}

	conn, err := r.factory.Dial(ctx, tenantID, coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPoolUnavailable, err)
	}

	r.mu.Lock()
	racer, raced := r.conns[tenantID]
	r.conns[tenantID] = &registryEntry{conn: conn, fingerprint: fp}
	r.mu.Unlock()
	if raced {
		// A concurrent cold-cache Acquire dialed with the old coordinates
		// while our dial was in flight. The saved coordinates win; the
		// racer's pool must not linger.
		racer.conn.Close()
	}
	if r.metrics != nil {
		r.metrics.PoolsReplaced.Add(ctx, 1)
	}
	return conn, nil
}

// Remove tears down the pool for tenantID if one exists. The next login for
// the tenant dials a fresh pool.
func (r *Registry) Remove(tenantID string) {
	r.mu.Lock()
	e, ok := r.conns[tenantID]
	delete(r.conns, tenantID)
	r.mu.Unlock()

	if ok {
		e.conn.Close()
	}
}

// Len returns the number of cached pools (for metrics and testing).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close tears down every cached pool. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range conns {
		e.conn.Close()
	}
}
