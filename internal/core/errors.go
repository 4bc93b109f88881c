package core

import (
	"errors"
	"fmt"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/entitlement"
)

var (
	// ErrUnverifiedIdentity is treated exactly like an unauthenticated caller.
	ErrUnverifiedIdentity = errors.New("email address has not been verified")
	// ErrOrphanedIdentity means the identity has no profile. The identity's
	// sessions are revoked and the caller is signed out.
	ErrOrphanedIdentity = errors.New("no profile exists for this identity")

	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("upgrade request not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrMessageNotFound = errors.New("contact message not found")

	ErrRequestAlreadyPending = entitlement.ErrAlreadyPending
	ErrAlreadyPro            = entitlement.ErrAlreadyPro
	ErrInvalidTransition     = entitlement.ErrInvalidTransition
	ErrUnknownFeature        = entitlement.ErrUnknownFeature

	ErrInvalidSubmission      = errors.New("nameOnPayment and utrNumber are required")
	ErrInvalidReview          = errors.New("review text is required and rating must be between 1 and 5")
	ErrInvalidContactMessage  = errors.New("name, email and message are required")
	ErrInvalidHealthGoal      = errors.New("health goal must be between 1 and 100 characters")
	ErrInvalidStatus          = errors.New("unsupported status")
	ErrInvalidRegistration    = errors.New("name, email and a password of at least 6 characters are required")
	ErrEmailAlreadyRegistered = errors.New("an account with this email already exists")
)

// notFoundAs rewrites db.ErrNotFound into the service-level sentinel.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}
