package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/middleware"
	"eatlens-backend-go/internal/models"
)

// FeedbackHandler handles reviews and the contact form.
type FeedbackHandler struct {
	feedbackService core.FeedbackService
	logger          *zap.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(fs core.FeedbackService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: fs, logger: logger}
}

// SubmitReview handles POST /api/v1/reviews.
func (h *FeedbackHandler) SubmitReview(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req models.ReviewSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	review, err := h.feedbackService.SubmitReview(c.Request.Context(), sess, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Thanks! Your review will appear once approved.", Data: review})
}

// ListApprovedReviews handles GET /api/v1/reviews?limit=N.
func (h *FeedbackHandler) ListApprovedReviews(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	reviews, err := h.feedbackService.ListApprovedReviews(c.Request.Context(), limit)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newList(reviews))
}

// SubmitContactMessage handles POST /api/v1/contact. Signed-in callers are
// linked to their message.
func (h *FeedbackHandler) SubmitContactMessage(c *gin.Context) {
	var req models.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.feedbackService.SubmitContactMessage(c.Request.Context(), c.GetString(middleware.ContextUserID), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Message received", Data: msg})
}
