package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/models"
)

type adminService struct {
	repos  *db.Repositories
	audit  AuditService
	cache  cache.Cache
	logger *zap.Logger
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(repos *db.Repositories, audit AuditService, c cache.Cache, logger *zap.Logger) AdminService {
	return &adminService{repos: repos, audit: audit, cache: c, logger: logger}
}

// ListPendingRequests returns requests awaiting review, oldest first.
func (s *adminService) ListPendingRequests(ctx context.Context) ([]*models.UpgradeRequest, error) {
	reqs, err := s.repos.Requests.ListByStatus(ctx, models.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].SubmittedAt.Before(reqs[j].SubmittedAt)
	})
	return reqs, nil
}

// ListCompletedRequests returns decided requests, most recently decided first.
func (s *adminService) ListCompletedRequests(ctx context.Context) ([]*models.UpgradeRequest, error) {
	reqs, err := s.repos.Requests.ListByStatus(ctx, models.RequestApproved, models.RequestRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed requests: %w", err)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].DecidedAt().After(reqs[j].DecidedAt())
	})
	return reqs, nil
}

func (s *adminService) ListProUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repos.Users.ListByPlan(ctx, models.PlanPro)
	if err != nil {
		return nil, fmt.Errorf("failed to list pro users: %w", err)
	}
	return users, nil
}

func (s *adminService) ListReviews(ctx context.Context) ([]*models.Review, error) {
	reviews, err := s.repos.Reviews.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// UpdateReviewStatus moves a pending review to approved or rejected. Repeating
// the same decision is a no-op; reversing it is an invalid transition.
func (s *adminService) UpdateReviewStatus(ctx context.Context, adminID, reviewID, status string) (*models.Review, error) {
	next := models.ReviewStatus(status)
	if next != models.ReviewApproved && next != models.ReviewRejected {
		return nil, fmt.Errorf("%w: review status %q", ErrInvalidStatus, status)
	}

	rv, err := s.repos.Reviews.SetStatus(ctx, reviewID, models.ReviewPending, next)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrReviewNotFound, err)
	case errors.Is(err, db.ErrStatusConflict):
		if rv != nil && rv.Status == next {
			return rv, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case err != nil:
		return nil, fmt.Errorf("failed to update review '%s': %w", reviewID, err)
	}

	if next == models.ReviewApproved {
		if err := s.cache.Delete(ctx, approvedReviewsKey); err != nil {
			s.logger.Warn("Failed to invalidate approved reviews cache", zap.Error(err))
		}
	}
	if err := s.audit.CreateAuditLog(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     models.AuditReviewModerate,
		TargetType: models.TargetReview,
		TargetID:   reviewID,
		Details:    map[string]interface{}{"status": string(next)},
	}); err != nil {
		s.logger.Warn("Failed to write audit log", zap.String("review_id", reviewID), zap.Error(err))
	}
	return rv, nil
}

func (s *adminService) ListContactMessages(ctx context.Context) ([]*models.ContactMessage, error) {
	msgs, err := s.repos.Messages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return msgs, nil
}

// UpdateMessageStatus marks a new message as read. Marking it again is a no-op.
func (s *adminService) UpdateMessageStatus(ctx context.Context, adminID, messageID, status string) (*models.ContactMessage, error) {
	if models.MessageStatus(status) != models.MessageRead {
		return nil, fmt.Errorf("%w: message status %q", ErrInvalidStatus, status)
	}

	msg, err := s.repos.Messages.SetStatus(ctx, messageID, models.MessageNew, models.MessageRead)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrMessageNotFound, err)
	case errors.Is(err, db.ErrStatusConflict):
		return msg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to update contact message '%s': %w", messageID, err)
	}

	if err := s.audit.CreateAuditLog(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     models.AuditMessageRead,
		TargetType: models.TargetContactMessage,
		TargetID:   messageID,
	}); err != nil {
		s.logger.Warn("Failed to write audit log", zap.String("message_id", messageID), zap.Error(err))
	}
	return msg, nil
}
