package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/models"
)

const (
	approvedReviewsKey = "reviews:approved"

	// DefaultPublicReviews is how many approved reviews the landing page shows.
	DefaultPublicReviews = 3
	maxPublicReviews     = 20
)

type feedbackService struct {
	reviews  db.ReviewRepository
	messages db.ContactMessageRepository
	cache    cache.Cache
	cacheTTL time.Duration
	clock    Clock
	logger   *zap.Logger
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(reviews db.ReviewRepository, messages db.ContactMessageRepository, c cache.Cache, cacheTTL time.Duration, clock Clock, logger *zap.Logger) FeedbackService {
	return &feedbackService{
		reviews:  reviews,
		messages: messages,
		cache:    c,
		cacheTTL: cacheTTL,
		clock:    clock,
		logger:   logger,
	}
}

func (s *feedbackService) SubmitReview(ctx context.Context, sess *Session, sub models.ReviewSubmission) (*models.Review, error) {
	text := strings.TrimSpace(sub.ReviewText)
	if text == "" || sub.Rating < 1 || sub.Rating > 5 {
		return nil, ErrInvalidReview
	}

	profile := sess.Profile()
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "Anonymous"
	}
	review := &models.Review{
		UserID:      sess.UserID(),
		UserName:    name,
		ReviewText:  text,
		Rating:      sub.Rating,
		Status:      models.ReviewPending,
		SubmittedAt: s.clock.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}
	return review, nil
}

func (s *feedbackService) SubmitContactMessage(ctx context.Context, userID string, sub models.ContactSubmission) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:        strings.TrimSpace(sub.Name),
		Email:       strings.ToLower(strings.TrimSpace(sub.Email)),
		Message:     strings.TrimSpace(sub.Message),
		Status:      models.MessageNew,
		SubmittedAt: s.clock.Now().UTC(),
		UserID:      userID,
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, ErrInvalidContactMessage
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to submit contact message: %w", err)
	}
	return msg, nil
}

// ListApprovedReviews returns up to limit approved reviews, newest first.
// The top reviews are cached; a cache failure falls through to the store.
func (s *feedbackService) ListApprovedReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	if limit <= 0 {
		limit = DefaultPublicReviews
	}
	if limit > maxPublicReviews {
		limit = maxPublicReviews
	}

	reviews, err := s.cachedApproved(ctx)
	if err != nil {
		return nil, err
	}
	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

func (s *feedbackService) cachedApproved(ctx context.Context) ([]*models.Review, error) {
	raw, ok, err := s.cache.Get(ctx, approvedReviewsKey)
	if err != nil {
		s.logger.Warn("Reviews cache read failed", zap.Error(err))
	}
	if ok {
		var cached []*models.Review
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("Discarding malformed reviews cache entry")
	}

	reviews, err := s.reviews.ListApproved(ctx, maxPublicReviews)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	if payload, err := json.Marshal(reviews); err == nil {
		if err := s.cache.Set(ctx, approvedReviewsKey, payload, s.cacheTTL); err != nil {
			s.logger.Warn("Reviews cache write failed", zap.Error(err))
		}
	}
	return reviews, nil
}
