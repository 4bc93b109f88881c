package core

import (
	"context"
	"time"

	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/models"
)

// Clock supplies the current time to every rule that depends on it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SessionService reconciles an authenticated identity with its stored profile.
type SessionService interface {
	// Bootstrap applies any due expiry and reset in a single write and returns
	// the session used by the rest of the request.
	Bootstrap(ctx context.Context, id identity.Identity) (*Session, error)
}

// UsageService records consumption of metered free-tier features.
type UsageService interface {
	RecordUsage(ctx context.Context, sess *Session, feature entitlement.Feature) (*models.User, error)
}

// PlanService drives the free/pending/pro state machine.
type PlanService interface {
	SubmitUpgradeRequest(ctx context.Context, sess *Session, sub models.UpgradeSubmission) (*models.UpgradeRequest, error)
	ApproveRequest(ctx context.Context, adminID, requestID string) (*TransitionResult, error)
	RejectRequest(ctx context.Context, adminID, requestID string) (*TransitionResult, error)
	DowngradeUser(ctx context.Context, adminID, userID string) (*TransitionResult, error)
	// SweepExpired moves every pro profile past its expiry back to free and
	// returns how many were moved.
	SweepExpired(ctx context.Context) (int, error)
}

// AdminService backs the moderation console.
type AdminService interface {
	ListPendingRequests(ctx context.Context) ([]*models.UpgradeRequest, error)
	ListCompletedRequests(ctx context.Context) ([]*models.UpgradeRequest, error)
	ListProUsers(ctx context.Context) ([]*models.User, error)
	ListReviews(ctx context.Context) ([]*models.Review, error)
	UpdateReviewStatus(ctx context.Context, adminID, reviewID, status string) (*models.Review, error)
	ListContactMessages(ctx context.Context) ([]*models.ContactMessage, error)
	UpdateMessageStatus(ctx context.Context, adminID, messageID, status string) (*models.ContactMessage, error)
}

// FeedbackService handles reviews and the contact form.
type FeedbackService interface {
	SubmitReview(ctx context.Context, sess *Session, sub models.ReviewSubmission) (*models.Review, error)
	// SubmitContactMessage accepts anonymous messages; userID may be empty.
	SubmitContactMessage(ctx context.Context, userID string, sub models.ContactSubmission) (*models.ContactMessage, error)
	ListApprovedReviews(ctx context.Context, limit int) ([]*models.Review, error)
}

// UserService handles registration and self-service account changes.
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdateHealthGoal(ctx context.Context, sess *Session, goal string) (*models.User, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}

// TransitionResult reports the state of both records after an admin action.
// NoOp is set when the target state already held.
type TransitionResult struct {
	Request *models.UpgradeRequest `json:"request,omitempty"`
	User    *models.User           `json:"user"`
	NoOp    bool                   `json:"noOp"`
}
