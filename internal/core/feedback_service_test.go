package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"eatlens-backend-go/internal/models"
)

func TestSubmitReviewValidation(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, models.User{ID: "u1", Plan: models.PlanFree})
	sess := h.bootstrap(t, "u1")

	tests := []struct {
		name string
		sub  models.ReviewSubmission
	}{
		{"blank text", models.ReviewSubmission{ReviewText: "   ", Rating: 4}},
		{"rating zero", models.ReviewSubmission{ReviewText: "ok", Rating: 0}},
		{"rating six", models.ReviewSubmission{ReviewText: "ok", Rating: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.feedback.SubmitReview(context.Background(), sess, tt.sub); !errors.Is(err, ErrInvalidReview) {
				t.Fatalf("expected ErrInvalidReview, got %v", err)
			}
		})
	}

	rv, err := h.feedback.SubmitReview(context.Background(), sess, models.ReviewSubmission{ReviewText: " Tasty ", Rating: 4})
	if err != nil {
		t.Fatal(err)
	}
	if rv.UserName != "Anonymous" || rv.ReviewText != "Tasty" || rv.Status != models.ReviewPending {
		t.Fatalf("unexpected review %+v", rv)
	}
}

func TestListApprovedReviewsLimitAndCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rv := &models.Review{
			UserName:    "user",
			ReviewText:  "text",
			Rating:      5,
			Status:      models.ReviewApproved,
			SubmittedAt: testNow.Add(time.Duration(i) * time.Minute),
		}
		if err := h.repos.Reviews.Create(ctx, rv); err != nil {
			t.Fatal(err)
		}
	}

	got, err := h.feedback.ListApprovedReviews(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultPublicReviews {
		t.Fatalf("expected %d reviews by default, got %d", DefaultPublicReviews, len(got))
	}
	if !got[0].SubmittedAt.After(got[1].SubmittedAt) {
		t.Fatal("expected newest review first")
	}

	// A later store write is invisible until the cache entry goes away.
	extra := &models.Review{Status: models.ReviewApproved, Rating: 1, SubmittedAt: testNow.Add(time.Hour)}
	if err := h.repos.Reviews.Create(ctx, extra); err != nil {
		t.Fatal(err)
	}
	all, _ := h.feedback.ListApprovedReviews(ctx, 50)
	if len(all) != 5 {
		t.Fatalf("expected cached 5 reviews, got %d", len(all))
	}

	_ = h.cache.Delete(ctx, approvedReviewsKey)
	all, _ = h.feedback.ListApprovedReviews(ctx, 50)
	if len(all) != 6 || all[0].ID != extra.ID {
		t.Fatalf("expected fresh list led by the new review, got %d", len(all))
	}
}

func TestSubmitContactMessageValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.feedback.SubmitContactMessage(context.Background(), "u1", models.ContactSubmission{Name: "A", Email: "a@b.c", Message: "  "})
	if !errors.Is(err, ErrInvalidContactMessage) {
		t.Fatalf("expected ErrInvalidContactMessage, got %v", err)
	}
}
