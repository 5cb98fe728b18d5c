package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	vlotel "github.com/vendalink/vendalink/internal/adapter/otel"
	"github.com/vendalink/vendalink/internal/config"
	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/port/database"
)

// HeartbeatService keeps sessions counted as live. Touch rides along with
// every authenticated request; IsLive answers "is token T still usable" for
// the admission controller's window predicate scoped to a single token.
type HeartbeatService struct {
	store   database.Store
	clock   session.Clock
	cfg     config.Session
	metrics *vlotel.Metrics
}

// NewHeartbeatService creates a HeartbeatService.
func NewHeartbeatService(store database.Store, clock session.Clock, cfg config.Session) *HeartbeatService {
	return &HeartbeatService{store: store, clock: clock, cfg: cfg}
}

// SetMetrics attaches metric instruments. Optional.
func (h *HeartbeatService) SetMetrics(m *vlotel.Metrics) {
	h.metrics = m
}

// Touch refreshes the session's last-activity timestamp. It returns
// immediately; the update runs detached from the request's context with the
// shortest timeout in the system, and failures are logged, never surfaced:
// a missed heartbeat must not fail the request it rides along with.
func (h *HeartbeatService) Touch(token string) {
	if token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.HeartbeatTimeout)
		defer cancel()
		if err := h.touch(ctx, token); err != nil {
			slog.Debug("heartbeat failed", "error", err)
		}
	}()
}

// touch is the synchronous update behind Touch.
func (h *HeartbeatService) touch(ctx context.Context, token string) error {
	if err := h.store.TouchSession(ctx, token, h.clock.Now()); err != nil {
		return fmt.Errorf("touch %s: %w", token, err)
	}
	if h.metrics != nil {
		h.metrics.Heartbeats.Add(ctx, 1)
	}
	return nil
}

// IsLive reports whether the token identifies a session that is flagged live
// and was touched within the timeout window. Unknown tokens are simply not
// live, not an error.
func (h *HeartbeatService) IsLive(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	sess, err := h.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}

	return sess.Live && session.ActiveWithin(sess.LastActivityAt, h.clock.Now(), h.cfg.Timeout), nil
}
