package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenVerifier map[string]identity.Identity

func (v tokenVerifier) VerifyIDToken(ctx context.Context, token string) (*identity.Identity, error) {
	id, ok := v[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &id, nil
}

type stubSessions struct {
	profiles map[string]models.User
}

func (s stubSessions) Bootstrap(ctx context.Context, id identity.Identity) (*core.Session, error) {
	if !id.EmailVerified {
		return nil, core.ErrUnverifiedIdentity
	}
	u, ok := s.profiles[id.UID]
	if !ok {
		return nil, core.ErrOrphanedIdentity
	}
	return core.NewSession(id, u), nil
}

func newTestRouter(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)
	verifier := tokenVerifier{
		"free":       {UID: "u-free", EmailVerified: true},
		"exhausted":  {UID: "u-exhausted", EmailVerified: true},
		"admin":      {UID: "u-admin", EmailVerified: true},
		"unverified": {UID: "u-free"},
		"orphan":     {UID: "u-ghost", EmailVerified: true},
	}
	sessions := stubSessions{profiles: map[string]models.User{
		"u-free":      {Plan: models.PlanFree},
		"u-exhausted": {Plan: models.PlanFree, AnalysisCount: entitlement.AnalysisLimit},
		"u-admin":     {Plan: models.PlanFree, Role: models.RoleAdmin},
	}}
	auth := NewAuthMiddleware(verifier, sessions, logger)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), RecoveryMiddleware(logger))
	chain := append([]gin.HandlerFunc{auth.VerifyToken(), auth.Session()}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		sess, _ := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"uid": sess.UserID()})
	})
	r.GET("/protected", chain...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthChain(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad token", "nope", http.StatusUnauthorized},
		{"unverified email", "unverified", http.StatusUnauthorized},
		{"orphaned identity", "orphan", http.StatusUnauthorized},
		{"valid", "free", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.token)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Error("expected a request ID header")
			}
		})
	}
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token free")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newTestRouter(t, RequireAdmin())
	if w := do(r, "free"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", w.Code)
	}
	if w := do(r, "admin"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

func TestRequireGate(t *testing.T) {
	r := newTestRouter(t, RequireGate(string(entitlement.FeatureAnalysis)))
	if w := do(r, "free"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 under quota, got %d", w.Code)
	}

	w := do(r, "exhausted")
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", w.Code)
	}
	var body GateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Decision.Allowed || body.Decision.Reason != entitlement.ReasonQuotaExhausted {
		t.Fatalf("unexpected decision %+v", body.Decision)
	}

	pro := newTestRouter(t, RequireGate(string(entitlement.ProPDFExport)))
	if w := do(pro, "free"); w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected pro feature denied, got %d", w.Code)
	}
	unknown := newTestRouter(t, RequireGate("teleport"))
	if w := do(unknown, "free"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown feature, got %d", w.Code)
	}
}

type stubLimiter struct {
	res  cache.RateResult
	err  error
	keys []string
}

func (l *stubLimiter) Take(ctx context.Context, key string) (cache.RateResult, error) {
	l.keys = append(l.keys, key)
	return l.res, l.err
}

func TestRateLimit(t *testing.T) {
	limiter := &stubLimiter{res: cache.RateResult{Allowed: false, Remaining: 0, RetryAfter: 1500 * time.Millisecond}}
	r := newTestRouter(t, RateLimit(limiter, zaptest.NewLogger(t)))

	w := do(r, "free")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("expected Retry-After 2, got %q", got)
	}
	if limiter.keys[0] != "user:u-free" {
		t.Errorf("expected per-user key, got %q", limiter.keys[0])
	}

	limiter.err = errors.New("redis down")
	if w := do(r, "free"); w.Code != http.StatusOK {
		t.Fatalf("limiter failure should let the request through, got %d", w.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	r := gin.New()
	r.Use(RecoveryMiddleware(logger))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRequestIDReusesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected request ID reused, got body %q", w.Body.String())
	}
}
