package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eatlens-backend-go/internal/entitlement"
)

// GateResponse is returned with 402 when a gate denies an action.
type GateResponse struct {
	Error    string               `json:"error"`
	Decision entitlement.Decision `json:"decision"`
}

// RequireGate evaluates action against the session profile. Denials are
// answered with 402 and the decision so the client can show the upgrade
// prompt. action is a metered feature or a pro feature name.
func RequireGate(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}

		decision, err := entitlement.Evaluate(sess.Profile(), action)
		if errors.Is(err, entitlement.ErrUnknownFeature) {
			c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "Unknown feature", Details: action})
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, GateResponse{Error: "Upgrade required", Decision: decision})
			return
		}
		c.Next()
	}
}
