package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/models"
)

var testNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type fakeIdentities struct {
	mu        sync.Mutex
	nextUID   string
	existing  map[string]bool // registered emails
	deleted   []string
	revoked   []string
	createErr error
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{nextUID: "uid-new", existing: map[string]bool{}}
}

func (f *fakeIdentities) VerifyIDToken(ctx context.Context, token string) (*identity.Identity, error) {
	return nil, identity.ErrInvalidToken
}

func (f *fakeIdentities) CreateUser(ctx context.Context, name, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.existing[email] {
		return "", identity.ErrEmailExists
	}
	f.existing[email] = true
	return f.nextUID, nil
}

func (f *fakeIdentities) DeleteUser(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeIdentities) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	return f.link("verify", email)
}

func (f *fakeIdentities) PasswordResetLink(ctx context.Context, email string) (string, error) {
	return f.link("reset", email)
}

func (f *fakeIdentities) link(kind, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.existing[email] {
		return "", identity.ErrUserNotFound
	}
	return "https://auth.example.com/" + kind + "?email=" + email, nil
}

func (f *fakeIdentities) RevokeSessions(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, uid)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PlanEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.PlanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string // recipients
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var _ cache.Cache = (*memCache)(nil)

// harness wires every service to one MemoryStore.
type harness struct {
	store      *db.MemoryStore
	repos      *db.Repositories
	clock      *fixedClock
	identities *fakeIdentities
	publisher  *recordingPublisher
	mail       *recordingMailer
	cache      *memCache

	sessions SessionService
	usage    UsageService
	plans    PlanService
	admin    AdminService
	feedback FeedbackService
	users    UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		store:      db.NewMemoryStore(),
		clock:      &fixedClock{t: testNow},
		identities: newFakeIdentities(),
		publisher:  &recordingPublisher{},
		mail:       &recordingMailer{},
		cache:      newMemCache(),
	}
	h.repos = h.store.Repositories()
	audit := NewAuditService(h.repos.Audit)

	h.sessions = NewSessionService(h.repos.Accounts, h.identities, audit, h.publisher, h.clock, logger)
	h.usage = NewUsageService(h.repos.Accounts, h.clock, logger)
	h.plans = NewPlanService(h.repos.Accounts, h.repos.Users, audit, h.publisher, h.clock, logger)
	h.admin = NewAdminService(h.repos, audit, h.cache, logger)
	h.feedback = NewFeedbackService(h.repos.Reviews, h.repos.Messages, h.cache, time.Minute, h.clock, logger)
	h.users = NewUserService(h.repos.Users, h.identities, h.mail, "admin@eatlens.com", h.clock, logger)
	return h
}

func (h *harness) seedUser(t *testing.T, u models.User) {
	t.Helper()
	if u.Email == "" {
		u.Email = u.ID + "@example.com"
	}
	if u.LastResetDate == 0 {
		u.LastResetDate = models.MillisOf(testNow.Add(-24 * time.Hour))
	}
	if err := h.repos.Users.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (h *harness) stored(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := h.repos.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (h *harness) bootstrap(t *testing.T, uid string) *Session {
	t.Helper()
	sess, err := h.sessions.Bootstrap(context.Background(), identity.Identity{UID: uid, Email: uid + "@example.com", EmailVerified: true})
	if err != nil {
		t.Fatalf("bootstrap %s: %v", uid, err)
	}
	return sess
}

var errInjected = errors.New("injected write failure")
