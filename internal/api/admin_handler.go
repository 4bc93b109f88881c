package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/models"
)

// AdminHandler backs the moderation console. Every route is behind
// middleware.RequireAdmin.
type AdminHandler struct {
	adminService core.AdminService
	planService  core.PlanService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(as core.AdminService, ps core.PlanService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: as, planService: ps, logger: logger}
}

func adminID(c *gin.Context) string {
	if sess, ok := sessionFrom(c); ok {
		return sess.UserID()
	}
	return ""
}

// ListUpgradeRequests handles GET /api/v1/admin/upgrade-requests?status=pending|completed.
func (h *AdminHandler) ListUpgradeRequests(c *gin.Context) {
	var (
		reqs []*models.UpgradeRequest
		err  error
	)
	switch c.DefaultQuery("status", "pending") {
	case "pending":
		reqs, err = h.adminService.ListPendingRequests(c.Request.Context())
	case "completed":
		reqs, err = h.adminService.ListCompletedRequests(c.Request.Context())
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be 'pending' or 'completed'"})
		return
	}
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newList(reqs))
}

// ApproveRequest handles POST /api/v1/admin/upgrade-requests/:requestId/approve.
func (h *AdminHandler) ApproveRequest(c *gin.Context) {
	res, err := h.planService.ApproveRequest(c.Request.Context(), adminID(c), c.Param("requestId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RejectRequest handles POST /api/v1/admin/upgrade-requests/:requestId/reject.
func (h *AdminHandler) RejectRequest(c *gin.Context) {
	res, err := h.planService.RejectRequest(c.Request.Context(), adminID(c), c.Param("requestId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListProUsers handles GET /api/v1/admin/users/pro.
func (h *AdminHandler) ListProUsers(c *gin.Context) {
	users, err := h.adminService.ListProUsers(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newList(users))
}

// DowngradeUser handles POST /api/v1/admin/users/:userId/downgrade.
func (h *AdminHandler) DowngradeUser(c *gin.Context) {
	res, err := h.planService.DowngradeUser(c.Request.Context(), adminID(c), c.Param("userId"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SweepExpiredPlans handles POST /api/v1/admin/plans/sweep, the on-demand
// version of the worker's periodic sweep.
func (h *AdminHandler) SweepExpiredPlans(c *gin.Context) {
	n, err := h.planService.SweepExpired(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Expired plans swept", Data: gin.H{"expired": n}})
}

// ListReviews handles GET /api/v1/admin/reviews.
func (h *AdminHandler) ListReviews(c *gin.Context) {
	reviews, err := h.adminService.ListReviews(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newList(reviews))
}

// UpdateReviewStatus handles PATCH /api/v1/admin/reviews/:reviewId.
func (h *AdminHandler) UpdateReviewStatus(c *gin.Context) {
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	review, err := h.adminService.UpdateReviewStatus(c.Request.Context(), adminID(c), c.Param("reviewId"), req.Status)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ListContactMessages handles GET /api/v1/admin/messages.
func (h *AdminHandler) ListContactMessages(c *gin.Context) {
	msgs, err := h.adminService.ListContactMessages(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newList(msgs))
}

// UpdateMessageStatus handles PATCH /api/v1/admin/messages/:messageId.
func (h *AdminHandler) UpdateMessageStatus(c *gin.Context) {
	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.adminService.UpdateMessageStatus(c.Request.Context(), adminID(c), c.Param("messageId"), req.Status)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
