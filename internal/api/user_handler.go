package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/models"
)

// UserHandler handles account and profile endpoints.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// Register handles POST /api/v1/auth/register.
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Account created. Check your inbox to verify your email address.",
		Data:    user,
	})
}

// SendPasswordReset handles POST /api/v1/auth/password-reset.
func (h *UserHandler) SendPasswordReset(c *gin.Context) {
	var req models.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.userService.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "If an account exists for that address, a reset link has been sent."})
}

// ResendVerification handles POST /api/v1/auth/verification.
func (h *UserHandler) ResendVerification(c *gin.Context) {
	var req models.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.userService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "If an account exists for that address, a verification link has been sent."})
}

// StartSession handles POST /api/v1/users/session, the explicit sign-in
// event. Reconciliation already ran in the session middleware.
func (h *UserHandler) StartSession(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	h.logger.Info("Session started", zap.String("uid", sess.UserID()))
	c.JSON(http.StatusOK, newAccountResponse(sess.Profile()))
}

// GetCurrentUserProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Profile())
}

// UpdateHealthGoal handles PATCH /api/v1/users/me/health-goal.
func (h *UserHandler) UpdateHealthGoal(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req models.HealthGoalUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.UpdateHealthGoal(c.Request.Context(), sess, req.HealthGoal)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
