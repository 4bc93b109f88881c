package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/entitlement"
)

// UsageHandler exposes usage accounting and gate evaluation.
type UsageHandler struct {
	usageService core.UsageService
	logger       *zap.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(us core.UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{usageService: us, logger: logger}
}

// RecordUsage handles POST /api/v1/usage/:feature. The client calls it
// after the metered action succeeded.
func (h *UsageHandler) RecordUsage(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	feature, err := entitlement.ParseFeature(c.Param("feature"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	user, err := h.usageService.RecordUsage(c.Request.Context(), sess, feature)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(*user))
}

// GetEntitlements handles GET /api/v1/entitlements.
func (h *UsageHandler) GetEntitlements(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(sess.Profile()))
}

// CheckGate handles GET /api/v1/entitlements/:action and always answers 200
// with the decision; use middleware.RequireGate to enforce.
func (h *UsageHandler) CheckGate(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	decision, err := entitlement.Evaluate(sess.Profile(), c.Param("action"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
