package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/session"
)

const sessionColumns = `token, tenant_id, subject_ref, created_at, last_activity_at, live, client_addr, user_agent`

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	err := row.Scan(&s.Token, &s.TenantID, &s.SubjectRef,
		&s.CreatedAt, &s.LastActivityAt, &s.Live, &s.ClientAddr, &s.UserAgent)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSession appends a new row to the session ledger.
func (s *Store) InsertSession(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, tenant_id, subject_ref, created_at, last_activity_at, live, client_addr, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.Token, sess.TenantID, sess.SubjectRef,
		sess.CreatedAt, sess.LastActivityAt, sess.Live, sess.ClientAddr, sess.UserAgent)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// InsertSessionGuarded counts live in-window sessions and inserts the new row
// in a single serializable transaction, closing the count-then-insert race.
// Returns false (and inserts nothing) when the tenant is already at quota.
func (s *Store) InsertSessionGuarded(ctx context.Context, sess *session.Session, cutoff time.Time, quota int) (bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return false, fmt.Errorf("begin guarded insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE tenant_id = $1 AND live AND last_activity_at >= $2`,
		sess.TenantID, cutoff).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("guarded count: %w", err)
	}
	if count >= quota {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (token, tenant_id, subject_ref, created_at, last_activity_at, live, client_addr, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.Token, sess.TenantID, sess.SubjectRef,
		sess.CreatedAt, sess.LastActivityAt, sess.Live, sess.ClientAddr, sess.UserAgent)
	if err != nil {
		return false, fmt.Errorf("guarded insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit guarded insert: %w", err)
	}
	return true, nil
}

// GetSession returns a single ledger row by token.
func (s *Store) GetSession(ctx context.Context, token string) (*session.Session, error) {
	sess, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get session: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// TouchSession advances last_activity_at. GREATEST keeps the timestamp
// monotonic when heartbeats race each other.
func (s *Store) TouchSession(ctx context.Context, token string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_activity_at = GREATEST(last_activity_at, $2) WHERE token = $1`,
		token, now)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch session: %w", domain.ErrNotFound)
	}
	return nil
}

// TerminateSession clears the live flag. The row stays as history.
func (s *Store) TerminateSession(ctx context.Context, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET live = FALSE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("terminate session: %w", domain.ErrNotFound)
	}
	return nil
}

// CountActiveSessions counts the ledger rows that currently hold a quota slot:
// live and touched at or after the cutoff.
func (s *Store) CountActiveSessions(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE tenant_id = $1 AND live AND last_activity_at >= $2`,
		tenantID, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}

// ListActiveSessions returns the rows behind CountActiveSessions, newest first.
func (s *Store) ListActiveSessions(ctx context.Context, tenantID string, cutoff time.Time) ([]session.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE tenant_id = $1 AND live AND last_activity_at >= $2
		 ORDER BY last_activity_at DESC`,
		tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
