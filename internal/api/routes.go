package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/middleware"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Users    core.UserService
	Usage    core.UsageService
	Plans    core.PlanService
	Admin    core.AdminService
	Feedback core.FeedbackService
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (request ID, logging, recovery, CORS) is applied in main.go.
// limiter may be nil, which disables rate limiting.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	limiter middleware.Limiter,
	services Services,
) {
	userHandler := NewUserHandler(services.Users, logger)
	usageHandler := NewUsageHandler(services.Usage, logger)
	upgradeHandler := NewUpgradeHandler(services.Plans, logger)
	adminHandler := NewAdminHandler(services.Admin, services.Plans, logger)
	feedbackHandler := NewFeedbackHandler(services.Feedback, logger)

	var throttle gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = middleware.RateLimit(limiter, logger)
	}

	apiV1 := router.Group("/api/v1")
	{
		// Public account endpoints.
		authGroup := apiV1.Group("/auth", throttle)
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/password-reset", userHandler.SendPasswordReset)
			authGroup.POST("/verification", userHandler.ResendVerification)
		}

		apiV1.GET("/reviews", feedbackHandler.ListApprovedReviews)
		apiV1.POST("/contact", authMW.OptionalToken(), throttle, feedbackHandler.SubmitContactMessage)

		// Everything below runs against a bootstrapped session.
		authed := apiV1.Group("", authMW.VerifyToken(), throttle, authMW.Session())
		{
			authed.POST("/users/session", userHandler.StartSession)
			authed.GET("/users/me", userHandler.GetCurrentUserProfile)
			authed.PATCH("/users/me/health-goal", userHandler.UpdateHealthGoal)

			authed.GET("/entitlements", usageHandler.GetEntitlements)
			authed.GET("/entitlements/:action", usageHandler.CheckGate)
			authed.POST("/usage/:feature", usageHandler.RecordUsage)

			authed.POST("/upgrade-requests", upgradeHandler.SubmitUpgradeRequest)
			authed.POST("/reviews", feedbackHandler.SubmitReview)

			admin := authed.Group("/admin", middleware.RequireAdmin())
			{
				admin.GET("/upgrade-requests", adminHandler.ListUpgradeRequests)
				admin.POST("/upgrade-requests/:requestId/approve", adminHandler.ApproveRequest)
				admin.POST("/upgrade-requests/:requestId/reject", adminHandler.RejectRequest)

				admin.GET("/users/pro", adminHandler.ListProUsers)
				admin.POST("/users/:userId/downgrade", adminHandler.DowngradeUser)
				admin.POST("/plans/sweep", adminHandler.SweepExpiredPlans)

				admin.GET("/reviews", adminHandler.ListReviews)
				admin.PATCH("/reviews/:reviewId", adminHandler.UpdateReviewStatus)
				admin.GET("/messages", adminHandler.ListContactMessages)
				admin.PATCH("/messages/:messageId", adminHandler.UpdateMessageStatus)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "EatLens backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
