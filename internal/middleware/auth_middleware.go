package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/identity"
)

// Context keys set by the authentication chain.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextIdentity  = "identity"
	ContextSession   = "session"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware verifies bearer tokens and bootstraps the caller's session.
type AuthMiddleware struct {
	verifier identity.Verifier
	sessions core.SessionService
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier identity.Verifier, sessions core.SessionService, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil || sessions == nil {
		panic("AuthMiddleware requires an identity verifier and a session service")
	}
	return &AuthMiddleware{verifier: verifier, sessions: sessions, logger: logger}
}

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization header is required"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", "Authorization header format must be 'Bearer {token}'"
	}
	return parts[1], ""
}

// VerifyToken rejects requests without a valid ID token and stores the
// caller's identity in the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: problem})
			return
		}

		id, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Debug("ID token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalToken stores the identity when a valid token is presented and
// lets anonymous requests through.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if idToken, problem := bearerToken(c); problem == "" {
			if id, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id *identity.Identity) {
	c.Set(ContextUserID, id.UID)
	c.Set(ContextUserEmail, id.Email)
	c.Set(ContextIdentity, *id)
}

// Session bootstraps the profile for the verified identity. It must run
// after VerifyToken.
func (m *AuthMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(ContextIdentity)
		id, valid := raw.(identity.Identity)
		if !ok || !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}

		sess, err := m.sessions.Bootstrap(c.Request.Context(), id)
		switch {
		case errors.Is(err, core.ErrUnverifiedIdentity):
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Email address has not been verified"})
			return
		case errors.Is(err, core.ErrOrphanedIdentity):
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Account profile not found; you have been signed out"})
			return
		case err != nil:
			m.logger.Error("Session bootstrap failed", zap.String("uid", id.UID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load account"})
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// CurrentSession returns the session stored by Session.
func CurrentSession(c *gin.Context) (*core.Session, bool) {
	raw, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	sess, ok := raw.(*core.Session)
	return sess, ok && sess != nil
}

// RequireAdmin allows only profiles with the admin role. It must run after Session.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		if profile := sess.Profile(); !profile.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Administrator access required"})
			return
		}
		c.Next()
	}
}
