package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/tenant"
)

const tenantColumns = `id, tax_id, name, status,
	db_host, db_port, db_name, db_schema, db_user, db_password,
	session_quota, quota_enforced, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.TaxID, &t.Name, &t.Status,
		&t.Coords.Host, &t.Coords.Port, &t.Coords.Database, &t.Coords.Schema,
		&t.Coords.User, &t.Coords.Password,
		&t.SessionQuota, &t.QuotaEnforced, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByTaxID looks up a tenant by its normalized tax id.
func (s *Store) GetTenantByTaxID(ctx context.Context, taxID string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE tax_id = $1`, taxID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant by tax id: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant by tax id: %w", err)
	}
	return t, nil
}

// GetTenant looks up a tenant by its directory id.
func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return t, nil
}

// ListTenants returns every tenant record in creation order.
func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// CreateTenant inserts a new tenant record. The request must already be validated.
func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`INSERT INTO tenants (tax_id, name, status, db_host, db_port, db_name, db_schema, db_user, db_password, session_quota, quota_enforced)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+tenantColumns,
		req.TaxID, req.Name, tenant.StatusActive,
		req.Coords.Host, req.Coords.Port, req.Coords.Database, req.Coords.Schema,
		req.Coords.User, req.Coords.Password,
		req.SessionQuota, req.QuotaEnforced))
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// UpdateTenant saves the mutable fields of a tenant. The tax id is immutable.
func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, status = $3,
			db_host = $4, db_port = $5, db_name = $6, db_schema = $7, db_user = $8, db_password = $9,
			session_quota = $10, quota_enforced = $11, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, t.Status,
		t.Coords.Host, t.Coords.Port, t.Coords.Database, t.Coords.Schema,
		t.Coords.User, t.Coords.Password,
		t.SessionQuota, t.QuotaEnforced)
	if err != nil {
		return fmt.Errorf("update tenant %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update tenant %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}
