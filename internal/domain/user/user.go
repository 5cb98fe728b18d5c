// Package user defines the tenant-side user rows and the login contract.
// Users live in each tenant's own database; the core only reads them.
package user

import (
	"errors"

	"github.com/vendalink/vendalink/internal/domain/tenant"
)

// Role names derived from the administrator and management flags.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleRep     = "rep"
)

// User is a row of a tenant's user table.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Login     string `json:"login"`
	Admin     bool   `json:"admin"`
	Manager   bool   `json:"manager"`
}

// Role derives the display role from the administrator and management flags.
func (u *User) Role() string {
	switch {
	case u.Admin:
		return RoleAdmin
	case u.Manager:
		return RoleManager
	default:
		return RoleRep
	}
}

// Name returns the user's full name.
func (u *User) Name() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LoginRequest is the POST /login payload. The user is identified either by
// email or by a (first name, last name) pair, both matched case-insensitively.
type LoginRequest struct {
	TaxID     string `json:"tax_id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Secret    string `json:"secret"`
}

// Validate checks that the request carries a tax id, a secret, and exactly
// one usable identifier form.
func (r *LoginRequest) Validate() error {
	if tenant.NormalizeTaxID(r.TaxID) == "" {
		return errors.New("tax_id is required")
	}
	if r.Secret == "" {
		return errors.New("secret is required")
	}
	if r.Email == "" && (r.FirstName == "" || r.LastName == "") {
		return errors.New("email or first_name+last_name is required")
	}
	return nil
}

// LoginUser is the minimal profile returned to the caller on success.
type LoginUser struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	TenantName string `json:"tenantName"`
	TaxID      string `json:"taxId"`
}

// TenantConfig echoes the resolved tenant back to the client. DBConfig is
// redacted; it never carries the password.
type TenantConfig struct {
	TaxID    string             `json:"taxId"`
	DBConfig tenant.Coordinates `json:"dbConfig"`
}

// LoginResponse is the success envelope for POST /login.
type LoginResponse struct {
	Success      bool         `json:"success"`
	Token        string       `json:"token"`
	User         LoginUser    `json:"user"`
	TenantConfig TenantConfig `json:"tenantConfig"`
}
