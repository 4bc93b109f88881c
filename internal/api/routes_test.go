package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/mailer"
	"eatlens-backend-go/internal/middleware"
	"eatlens-backend-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubIdentities accepts "token-<uid>" as the ID token of uid.
type stubIdentities struct {
	verified map[string]bool
}

func (s stubIdentities) VerifyIDToken(ctx context.Context, token string) (*identity.Identity, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, identity.ErrInvalidToken
	}
	uid := token[len(prefix):]
	return &identity.Identity{UID: uid, Email: uid + "@example.com", EmailVerified: s.verified[uid]}, nil
}

func (stubIdentities) CreateUser(ctx context.Context, name, email, password string) (string, error) {
	return "uid-" + name, nil
}
func (stubIdentities) DeleteUser(ctx context.Context, uid string) error { return nil }
func (stubIdentities) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	return "https://auth.example.com/verify", nil
}
func (stubIdentities) PasswordResetLink(ctx context.Context, email string) (string, error) {
	return "", identity.ErrUserNotFound
}
func (stubIdentities) RevokeSessions(ctx context.Context, uid string) error { return nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type testServer struct {
	router *gin.Engine
	store  *db.MemoryStore
	repos  *db.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := db.NewMemoryStore()
	repos := store.Repositories()
	ids := stubIdentities{verified: map[string]bool{"alice": true, "admin": true}}
	clock := fixedClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	audit := core.NewAuditService(repos.Audit)
	pub := events.NopPublisher{}

	sessions := core.NewSessionService(repos.Accounts, ids, audit, pub, clock, logger)
	services := Services{
		Users:    core.NewUserService(repos.Users, ids, mailer.NewLogMailer(logger), "admin@example.com", clock, logger),
		Usage:    core.NewUsageService(repos.Accounts, clock, logger),
		Plans:    core.NewPlanService(repos.Accounts, repos.Users, audit, pub, clock, logger),
		Admin:    core.NewAdminService(repos, audit, cache.NopCache{}, logger),
		Feedback: core.NewFeedbackService(repos.Reviews, repos.Messages, cache.NopCache{}, time.Minute, clock, logger),
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RecoveryMiddleware(logger))
	SetupRoutes(router, logger, middleware.NewAuthMiddleware(ids, sessions, logger), nil, services)

	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com", Plan: models.PlanFree, LastResetDate: models.MillisOf(clock.t), HealthGoal: models.DefaultHealthGoal},
		{ID: "admin", Name: "Admin", Email: "admin@example.com", Plan: models.PlanFree, LastResetDate: models.MillisOf(clock.t), Role: models.RoleAdmin},
	} {
		u := u
		if err := repos.Users.Create(ctx, &u); err != nil {
			t.Fatal(err)
		}
	}
	return &testServer{router: router, store: store, repos: repos}
}

func (s *testServer) call(t *testing.T, method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer token-"+uid)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if w := s.call(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSessionReturnsEntitlements(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, http.MethodPost, "/api/v1/users/session", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp AccountResponse
	decode(t, w, &resp)
	if resp.User.Plan != models.PlanFree || len(resp.Entitlements) == 0 {
		t.Fatalf("unexpected session response %+v", resp)
	}

	if w := s.call(t, http.MethodPost, "/api/v1/users/session", "bob", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unverified caller should get 401, got %d", w.Code)
	}
}

func TestUsageUntilQuotaExhausted(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < entitlement.AnalysisLimit; i++ {
		if w := s.call(t, http.MethodPost, "/api/v1/usage/analysis", "alice", nil); w.Code != http.StatusOK {
			t.Fatalf("record #%d: %d %s", i+1, w.Code, w.Body.String())
		}
	}

	w := s.call(t, http.MethodGet, "/api/v1/entitlements/analysis", "alice", nil)
	var d entitlement.Decision
	decode(t, w, &d)
	if d.Allowed || d.Reason != entitlement.ReasonQuotaExhausted {
		t.Fatalf("expected exhausted decision, got %+v", d)
	}

	if w := s.call(t, http.MethodPost, "/api/v1/usage/scan", "alice", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown feature should be 404, got %d", w.Code)
	}
}

func TestUpgradeFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, http.MethodPost, "/api/v1/upgrade-requests", "alice", models.UpgradeSubmission{NameOnPayment: "Alice", UTRNumber: "UTR1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	if w := s.call(t, http.MethodPost, "/api/v1/upgrade-requests", "alice", models.UpgradeSubmission{NameOnPayment: "Alice", UTRNumber: "UTR1"}); w.Code != http.StatusConflict {
		t.Fatalf("second submit should be 409, got %d", w.Code)
	}

	if w := s.call(t, http.MethodGet, "/api/v1/admin/upgrade-requests", "alice", nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin should get 403, got %d", w.Code)
	}

	w = s.call(t, http.MethodGet, "/api/v1/admin/upgrade-requests?status=pending", "admin", nil)
	var pending ListResponse[models.UpgradeRequest]
	decode(t, w, &pending)
	if pending.Count != 1 {
		t.Fatalf("expected one pending request, got %+v", pending)
	}
	id := pending.Items[0].ID

	w = s.call(t, http.MethodPost, "/api/v1/admin/upgrade-requests/"+id+"/approve", "admin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}
	if w := s.call(t, http.MethodPost, "/api/v1/admin/upgrade-requests/"+id+"/reject", "admin", nil); w.Code != http.StatusConflict {
		t.Fatalf("reject after approve should be 409, got %d", w.Code)
	}

	w = s.call(t, http.MethodGet, "/api/v1/entitlements/pdf_export", "alice", nil)
	var d entitlement.Decision
	decode(t, w, &d)
	if !d.Allowed {
		t.Fatalf("pro user should unlock pro features, got %+v", d)
	}

	if w := s.call(t, http.MethodPost, "/api/v1/admin/users/alice/downgrade", "admin", nil); w.Code != http.StatusOK {
		t.Fatalf("downgrade: %d %s", w.Code, w.Body.String())
	}
	u, _ := s.repos.Users.GetByID(context.Background(), "alice")
	if u.Plan != models.PlanFree || u.PlanExpiryDate != nil {
		t.Fatalf("unexpected profile after downgrade %+v", u)
	}
}

func TestReviewModerationOverHTTP(t *testing.T) {
	s := newTestServer(t)

	if w := s.call(t, http.MethodPost, "/api/v1/reviews", "alice", models.ReviewSubmission{ReviewText: "Nice", Rating: 9}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid rating should be 400, got %d", w.Code)
	}
	w := s.call(t, http.MethodPost, "/api/v1/reviews", "alice", models.ReviewSubmission{ReviewText: "Nice", Rating: 5})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit review: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Data models.Review `json:"data"`
	}
	decode(t, w, &created)

	var public ListResponse[models.Review]
	decode(t, s.call(t, http.MethodGet, "/api/v1/reviews", "", nil), &public)
	if public.Count != 0 {
		t.Fatal("pending review must not be public")
	}

	w = s.call(t, http.MethodPatch, "/api/v1/admin/reviews/"+created.Data.ID, "admin", models.StatusUpdate{Status: "approved"})
	if w.Code != http.StatusOK {
		t.Fatalf("approve review: %d %s", w.Code, w.Body.String())
	}
	decode(t, s.call(t, http.MethodGet, "/api/v1/reviews?limit=5", "", nil), &public)
	if public.Count != 1 {
		t.Fatalf("expected one public review, got %d", public.Count)
	}
	if w := s.call(t, http.MethodGet, "/api/v1/reviews?limit=x", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit should be 400, got %d", w.Code)
	}
}

func TestContactAndAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, http.MethodPost, "/api/v1/contact", "", models.ContactSubmission{Name: "Guest", Email: "g@example.com", Message: "Hi"})
	if w.Code != http.StatusCreated {
		t.Fatalf("anonymous contact: %d %s", w.Code, w.Body.String())
	}
	w = s.call(t, http.MethodPost, "/api/v1/contact", "alice", models.ContactSubmission{Name: "Alice", Email: "alice@example.com", Message: "Hi"})
	var linked struct {
		Data models.ContactMessage `json:"data"`
	}
	decode(t, w, &linked)
	if linked.Data.UserID != "alice" {
		t.Fatalf("signed-in contact should be linked, got %+v", linked.Data)
	}

	if w := s.call(t, http.MethodPost, "/api/v1/auth/password-reset", "", models.EmailRequest{Email: "nobody@example.com"}); w.Code != http.StatusAccepted {
		t.Fatalf("password reset should always be 202, got %d", w.Code)
	}
	if w := s.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "Zed"}); w.Code != http.StatusBadRequest {
		t.Fatalf("incomplete registration should be 400, got %d", w.Code)
	}
	w = s.call(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{Name: "Zed", Email: "zed@example.com", Password: "secret1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
}

func TestUpdateHealthGoalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	w := s.call(t, http.MethodPatch, "/api/v1/users/me/health-goal", "alice", models.HealthGoalUpdate{HealthGoal: "Muscle Gain"})
	if w.Code != http.StatusOK {
		t.Fatalf("update goal: %d %s", w.Code, w.Body.String())
	}
	var u models.User
	decode(t, s.call(t, http.MethodGet, "/api/v1/users/me", "alice", nil), &u)
	if u.HealthGoal != "Muscle Gain" {
		t.Fatalf("expected goal persisted, got %q", u.HealthGoal)
	}
}
