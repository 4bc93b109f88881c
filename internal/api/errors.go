package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/core"
)

// mapErrorToStatus writes the response for a service error.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUnverifiedIdentity), errors.Is(err, core.ErrOrphanedIdentity):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrRequestNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrRequestNotFound.Error()}
	case errors.Is(err, core.ErrReviewNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrReviewNotFound.Error()}
	case errors.Is(err, core.ErrMessageNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrMessageNotFound.Error()}
	case errors.Is(err, core.ErrUnknownFeature):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUnknownFeature.Error()}
	case errors.Is(err, core.ErrRequestAlreadyPending):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrRequestAlreadyPending.Error()}
	case errors.Is(err, core.ErrAlreadyPro):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrAlreadyPro.Error()}
	case errors.Is(err, core.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrInvalidTransition.Error(), Details: err.Error()}
	case errors.Is(err, core.ErrEmailAlreadyRegistered):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrEmailAlreadyRegistered.Error()}
	case errors.Is(err, core.ErrInvalidSubmission),
		errors.Is(err, core.ErrInvalidReview),
		errors.Is(err, core.ErrInvalidContactMessage),
		errors.Is(err, core.ErrInvalidHealthGoal),
		errors.Is(err, core.ErrInvalidRegistration),
		errors.Is(err, core.ErrInvalidStatus):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: err.Error()}
	default:
		logger.Error("Internal Server Error", zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
}
