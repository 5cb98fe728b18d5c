// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrTenantNotFound indicates no active tenant record matches the supplied tax id.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrTenantInactive indicates the tenant exists but is disabled and rejects all logins.
var ErrTenantInactive = errors.New("tenant is inactive")

// ErrQuotaExceeded indicates the tenant's concurrent session quota is full.
// Use QuotaExceededError to carry the configured limit for display.
var ErrQuotaExceeded = errors.New("session quota exceeded")

// ErrPoolUnavailable indicates the tenant's database could not be reached.
var ErrPoolUnavailable = errors.New("tenant database unavailable")

// ErrInvalidCredentials covers both "user not found" and "wrong secret";
// the two are deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInfrastructure is the catch-all for unexpected database or driver failures.
var ErrInfrastructure = errors.New("infrastructure error")

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// QuotaExceededError carries the configured session limit so clients can
// render an actionable message.
type QuotaExceededError struct {
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("maximum of %d simultaneous connections reached", e.Limit)
}

// Is makes errors.Is(err, ErrQuotaExceeded) match.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
