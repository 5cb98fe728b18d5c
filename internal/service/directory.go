package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/port/cache"
	"github.com/vendalink/vendalink/internal/port/database"
)

// Directory resolves normalized tax ids to tenant records, fronted by a
// short-TTL in-process cache so the login hot path usually costs a single
// directory round-trip (the admission count) instead of two.
type Directory struct {
	store database.Store
	cache cache.Cache // nil disables caching
	ttl   time.Duration
}

// NewDirectory creates a Directory. Pass a nil cache to disable caching.
func NewDirectory(store database.Store, c cache.Cache, ttl time.Duration) *Directory {
	return &Directory{store: store, cache: c, ttl: ttl}
}

// Resolve normalizes the supplied tax identifier and returns the matching
// tenant record. Unknown tenants come back as domain.ErrTenantNotFound; the
// caller decides how to treat inactive ones.
func (d *Directory) Resolve(ctx context.Context, taxID string) (*tenant.Tenant, error) {
	normalized := tenant.NormalizeTaxID(taxID)
	if normalized == "" {
		return nil, domain.ErrTenantNotFound
	}

	if t, ok := d.fromCache(ctx, normalized); ok {
		return t, nil
	}

	t, err := d.store.GetTenantByTaxID(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	d.toCache(ctx, normalized, t)
	return t, nil
}

// Invalidate drops the cached record for a tax id. Called after admin edits
// so status and coordinate changes take effect immediately.
func (d *Directory) Invalidate(ctx context.Context, taxID string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Delete(ctx, directoryKey(tenant.NormalizeTaxID(taxID))); err != nil {
		slog.Warn("directory cache invalidate failed", "tax_id", taxID, "error", err)
	}
}

func (d *Directory) fromCache(ctx context.Context, normalized string) (*tenant.Tenant, bool) {
	if d.cache == nil {
		return nil, false
	}
	data, ok, err := d.cache.Get(ctx, directoryKey(normalized))
	if err != nil || !ok {
		return nil, false
	}
	var t tenant.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (d *Directory) toCache(ctx context.Context, normalized string, t *tenant.Tenant) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, directoryKey(normalized), data, d.ttl); err != nil {
		slog.Debug("directory cache set failed", "tax_id", normalized, "error", err)
	}
}

func directoryKey(normalized string) string {
	return "tenant:" + normalized
}
