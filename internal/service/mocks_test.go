package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vendalink/vendalink/internal/domain"
	"github.com/vendalink/vendalink/internal/domain/session"
	"github.com/vendalink/vendalink/internal/domain/tenant"
	"github.com/vendalink/vendalink/internal/domain/user"
	"github.com/vendalink/vendalink/internal/port/cache"
	"github.com/vendalink/vendalink/internal/port/database"
	"github.com/vendalink/vendalink/internal/port/tenantpool"
)

// Ensure mock types implement their interfaces at compile time.
var (
	_ database.Store     = (*mockStore)(nil)
	_ tenantpool.Factory = (*fakeFactory)(nil)
	_ tenantpool.Conn    = (*fakeConn)(nil)
	_ cache.Cache        = (*memCache)(nil)
	_ session.Clock      = (*fakeClock)(nil)
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// mockStore is an in-memory directory store.
type mockStore struct {
	mu       sync.Mutex
	tenants  []tenant.Tenant
	sessions map[string]*session.Session

	getTenantErr error
	insertErr    error
	countErr     error
}

func newMockStore(tenants ...tenant.Tenant) *mockStore {
	return &mockStore{tenants: tenants, sessions: make(map[string]*session.Session)}
}

func (m *mockStore) GetTenantByTaxID(_ context.Context, taxID string) (*tenant.Tenant, error) {
	if m.getTenantErr != nil {
		return nil, m.getTenantErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].TaxID == taxID {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			t := m.tenants[i]
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tenant.Tenant, len(m.tenants))
	copy(out, m.tenants)
	return out, nil
}

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := tenant.Tenant{
		ID:            "t-" + req.TaxID,
		TaxID:         req.TaxID,
		Name:          req.Name,
		Status:        tenant.StatusActive,
		Coords:        req.Coords,
		SessionQuota:  req.SessionQuota,
		QuotaEnforced: req.QuotaEnforced,
	}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID {
			m.tenants[i] = *t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) InsertSession(_ context.Context, s *session.Session) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.Token] = &cp
	return nil
}

func (m *mockStore) InsertSessionGuarded(ctx context.Context, s *session.Session, cutoff time.Time, quota int) (bool, error) {
	m.mu.Lock()
	count := m.countLocked(s.TenantID, cutoff)
	if count >= quota {
		m.mu.Unlock()
		return false, nil
	}
	cp := *s
	m.sessions[s.Token] = &cp
	m.mu.Unlock()
	return true, nil
}

func (m *mockStore) GetSession(_ context.Context, token string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) TouchSession(_ context.Context, token string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return domain.ErrNotFound
	}
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
	return nil
}

func (m *mockStore) TerminateSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return domain.ErrNotFound
	}
	s.Live = false
	return nil
}

func (m *mockStore) CountActiveSessions(_ context.Context, tenantID string, cutoff time.Time) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(tenantID, cutoff), nil
}

func (m *mockStore) ListActiveSessions(_ context.Context, tenantID string, cutoff time.Time) ([]session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.Session
	for _, s := range m.sessions {
		if s.TenantID == tenantID && s.Live && !s.LastActivityAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) countLocked(tenantID string, cutoff time.Time) int {
	n := 0
	for _, s := range m.sessions {
		if s.TenantID == tenantID && s.Live && !s.LastActivityAt.Before(cutoff) {
			n++
		}
	}
	return n
}

// fakeConn is a canned tenant database connection.
type fakeConn struct {
	users  map[string]*user.User // keyed by email
	secret string
	closed atomic.Int32
}

func (c *fakeConn) AuthenticateUser(_ context.Context, email, firstName, lastName, secret string) (*user.User, error) {
	var u *user.User
	if email != "" {
		u = c.users[email]
	} else {
		for _, candidate := range c.users {
			if candidate.FirstName == firstName && candidate.LastName == lastName {
				u = candidate
				break
			}
		}
	}
	if u == nil || secret != c.secret {
		return nil, domain.ErrInvalidCredentials
	}
	cp := *u
	return &cp, nil
}

func (c *fakeConn) Close() {
	c.closed.Add(1)
}

// fakeFactory hands out fakeConns and records dial activity.
type fakeFactory struct {
	mu      sync.Mutex
	conns   []*fakeConn
	dialErr error
	delay   time.Duration
	dials   atomic.Int32

	// next is returned by Dial when set; otherwise a fresh empty conn.
	next *fakeConn
}

func (f *fakeFactory) Dial(_ context.Context, _ string, _ tenant.Coordinates) (tenantpool.Conn, error) {
	f.dials.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conn := f.next
	if conn == nil {
		conn = &fakeConn{}
	}
	f.conns = append(f.conns, conn)
	return conn, nil
}

// memCache is a TTL-less in-memory cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
