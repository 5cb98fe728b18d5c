package tenantdb

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/user"
)

// Conn is a live handle to one tenant's database.
type Conn struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// Pool exposes the underlying pgx pool to the surrounding CRUD layer
// ("give me a working connection handle for tenant X").
func (c *Conn) Pool() *pgxpool.Pool { return c.pool }

// Close tears down the underlying connection pool.
func (c *Conn) Close() { c.pool.Close() }

// AuthenticateUser looks up a user by email or by first+last name and checks
// the secret. "User not found" and "wrong secret" both come back as
// domain.ErrInvalidCredentials so callers cannot enumerate accounts.
func (c *Conn) AuthenticateUser(ctx context.Context, email, firstName, lastName, secret string) (*user.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var row pgx.Row
	const columns = `id, email, first_name, last_name, login, secret, is_admin, is_manager`
	if email != "" {
		row = c.pool.QueryRow(ctx,
			`SELECT `+columns+` FROM users WHERE lower(email) = lower($1)`, email)
	} else {
		row = c.pool.QueryRow(ctx,
			`SELECT `+columns+` FROM users WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2)`,
			firstName, lastName)
	}

	var u user.User
	var storedSecret string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Login, &storedSecret, &u.Admin, &u.Manager)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query tenant user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(secret)) != 1 {
		return nil, domain.ErrInvalidCredentials
	}

	return &u, nil
}
