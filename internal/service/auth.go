package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	vlotel "github.com/vendalink/vendalink/internal/adapter/otel"
	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/domain/user"
	"github.com/vendalink/vendalink/internal/port/database"
	"github.com/vendalink/vendalink/internal/port/messagequeue"
)

// AuthService orchestrates a login attempt: resolve tenant, admission check,
// pool acquisition, credential validation against the tenant's user table,
// and the session ledger insert. No step retries; any failure aborts the
// whole attempt with a typed error. No rollback is needed because nothing
// before the final insert has a write effect.
type AuthService struct {
	directory *Directory
	admission *AdmissionController
	registry  *Registry
	store     database.Store
	events    *Events
	clock     session.Clock
	cfg       config.Session
	metrics   *vlotel.Metrics
}

// NewAuthService creates an AuthService.
func NewAuthService(directory *Directory, admission *AdmissionController, registry *Registry,
	store database.Store, events *Events, clock session.Clock, cfg config.Session) *AuthService {
	return &AuthService{
		directory: directory,
		admission: admission,
		registry:  registry,
		store:     store,
		events:    events,
		clock:     clock,
		cfg:       cfg,
	}
}

// SetMetrics attaches metric instruments. Optional; without it logins are
// simply not measured.
func (s *AuthService) SetMetrics(m *vlotel.Metrics) {
	s.metrics = m
}

// Login runs the full authentication flow. The request must already be
// validated. clientAddr and userAgent are recorded on the ledger row as
// diagnostic metadata only.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest, clientAddr, userAgent string) (*user.LoginResponse, error) {
	start := time.Now()
	resp, err := s.login(ctx, req, clientAddr, userAgent)
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("tax_id", tenant.NormalizeTaxID(req.TaxID)))
		s.metrics.LoginDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			s.metrics.LoginsRejected.Add(ctx, 1, attrs)
		} else {
			s.metrics.LoginsAdmitted.Add(ctx, 1, attrs)
		}
	}
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req user.LoginRequest, clientAddr, userAgent string) (*user.LoginResponse, error) {
	// 1. Resolve
	t, err := s.directory.Resolve(ctx, req.TaxID)
	if err != nil {
		return nil, err
	}
	if !t.Active() {
		return nil, domain.ErrTenantInactive
	}

	// 2. Admit
	admitted, limit, err := s.admission.MayAdmit(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("admission check: %w", err)
	}
	if !admitted {
		s.emitRejected(ctx, t.ID, t.TaxID, "quota")
		return nil, &domain.QuotaExceededError{Limit: limit}
	}

	// 3. Connect
	conn, err := s.registry.Acquire(ctx, t.ID, t.Coords)
	if err != nil {
		return nil, err
	}

	// 4. Authenticate
	u, err := conn.AuthenticateUser(ctx, req.Email, req.FirstName, req.LastName, req.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate against tenant db: %w", err)
	}

	// 5. Establish session
	now := s.clock.Now()
	sess := &session.Session{
		Token:          session.NewToken(),
		TenantID:       t.ID,
		SubjectRef:     u.ID,
		CreatedAt:      now,
		LastActivityAt: now,
		Live:           true,
		ClientAddr:     clientAddr,
		UserAgent:      userAgent,
	}

	if s.cfg.StrictAdmission && t.QuotaEnforced {
		inserted, err := s.store.InsertSessionGuarded(ctx, sess, s.admission.Cutoff(), limit)
		if err != nil {
			return nil, fmt.Errorf("establish session: %w", err)
		}
		if !inserted {
			s.emitRejected(ctx, t.ID, t.TaxID, "quota")
			return nil, &domain.QuotaExceededError{Limit: limit}
		}
	} else {
		if err := s.store.InsertSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("establish session: %w", err)
		}
	}

	s.events.Emit(ctx, messagequeue.SubjectSessionCreated, EventSessionCreated, SessionEvent{
		TenantID:   t.ID,
		TaxID:      t.TaxID,
		Token:      sess.Token,
		SubjectRef: u.ID,
		At:         now,
	})

	slog.Info("login succeeded", "tenant", t.TaxID, "subject", u.ID)

	return &user.LoginResponse{
		Success: true,
		Token:   sess.Token,
		User: user.LoginUser{
			ID:         u.ID,
			TenantID:   t.ID,
			Name:       u.Name(),
			Role:       u.Role(),
			TenantName: t.Name,
			TaxID:      t.TaxID,
		},
		TenantConfig: user.TenantConfig{
			TaxID:    t.TaxID,
			DBConfig: t.Coords.Redacted(),
		},
	}, nil
}

// Logout clears the session's live flag, freeing its quota slot ahead of the
// timeout window. The ledger row stays as history.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("logout: %w", err)
	}

	if err := s.store.TerminateSession(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SessionsEnded.Add(ctx, 1)
	}

	s.events.Emit(ctx, messagequeue.SubjectSessionTerminated, EventSessionTerminated, SessionEvent{
		TenantID:   sess.TenantID,
		Token:      token,
		SubjectRef: sess.SubjectRef,
		Reason:     "logout",
		At:         s.clock.Now(),
	})
	return nil
}

func (s *AuthService) emitRejected(ctx context.Context, tenantID, taxID, reason string) {
	s.events.Emit(ctx, messagequeue.SubjectSessionRejected, EventSessionRejected, SessionEvent{
		TenantID: tenantID,
		TaxID:    taxID,
		Reason:   reason,
		At:       s.clock.Now(),
	})
}
