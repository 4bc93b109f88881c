package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/models"
)

// UpgradeHandler handles the user side of the upgrade flow.
type UpgradeHandler struct {
	planService core.PlanService
	logger      *zap.Logger
}

// NewUpgradeHandler creates a new UpgradeHandler.
func NewUpgradeHandler(ps core.PlanService, logger *zap.Logger) *UpgradeHandler {
	return &UpgradeHandler{planService: ps, logger: logger}
}

// SubmitUpgradeRequest handles POST /api/v1/upgrade-requests.
func (h *UpgradeHandler) SubmitUpgradeRequest(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req models.UpgradeSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	upgrade, err := h.planService.SubmitUpgradeRequest(c.Request.Context(), sess, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"request": upgrade,
		"account": newAccountResponse(sess.Profile()),
	})
}
