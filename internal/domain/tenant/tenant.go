// Package tenant defines the directory records for customer companies.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a tenant in the directory.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Coordinates are the connection settings for a tenant's dedicated database.
type Coordinates struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Schema   string `json:"schema,omitempty" yaml:"schema"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password"`
}

// Redacted returns a copy safe for API responses.
func (c Coordinates) Redacted() Coordinates {
	c.Password = ""
	return c
}

// DSN renders the coordinates as a keyword/value connection string for pgx.
func (c Coordinates) DSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		c.Host, port, c.Database, c.User, c.Password)
}

// Fingerprint returns a stable hash of all coordinate fields. The registry
// uses it to skip pool teardown when a save did not actually change anything.
func (c Coordinates) Fingerprint() string {
	h := sha256.Sum256([]byte(strings.Join([]string{
		c.Host, fmt.Sprint(c.Port), c.Database, c.Schema, c.User, c.Password,
	}, "\x00")))
	return hex.EncodeToString(h[:])
}

// Validate checks that the coordinates are sufficient to build a pool.
func (c Coordinates) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.User == "" {
		return errors.New("user is required")
	}
	return nil
}

// Tenant is one customer company in the directory.
type Tenant struct {
	ID            string      `json:"id"`
	TaxID         string      `json:"tax_id"` // normalized, digits only, immutable
	Name          string      `json:"name"`
	Status        Status      `json:"status"`
	Coords        Coordinates `json:"coords"`
	SessionQuota  int         `json:"session_quota"` // 0 means "use the configured default"
	QuotaEnforced bool        `json:"quota_enforced"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Active reports whether the tenant accepts logins.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// NormalizeTaxID strips every non-digit character from the supplied identifier.
// Tax ids are stored and looked up in this normalized form only.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreateRequest is the payload for registering a new tenant.
type CreateRequest struct {
	TaxID         string      `json:"tax_id"`
	Name          string      `json:"name"`
	Coords        Coordinates `json:"coords"`
	SessionQuota  int         `json:"session_quota"`
	QuotaEnforced bool        `json:"quota_enforced"`
}

// Validate checks required fields and normalizes the tax id in place.
func (r *CreateRequest) Validate() error {
	r.TaxID = NormalizeTaxID(r.TaxID)
	if r.TaxID == "" {
		return errors.New("tax_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.SessionQuota < 0 {
		return errors.New("session_quota must not be negative")
	}
	return r.Coords.Validate()
}

// UpdateRequest is the payload for editing an existing tenant. The tax id
// is immutable and deliberately absent.
type UpdateRequest struct {
	Name          *string      `json:"name,omitempty"`
	Status        *Status      `json:"status,omitempty"`
	Coords        *Coordinates `json:"coords,omitempty"`
	SessionQuota  *int         `json:"session_quota,omitempty"`
	QuotaEnforced *bool        `json:"quota_enforced,omitempty"`
}
