package db

import (
	"context"
	"errors"

	"eatlens-backend-go/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when creating a document whose ID is taken.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrStatusConflict is returned when a conditional status update finds a different current status.
	ErrStatusConflict = errors.New("document status changed")
)

// Tx is the Account Store as seen from inside a transaction. All reads must
// happen before the first write.
type Tx interface {
	GetUser(userID string) (*models.User, error)
	GetUpgradeRequest(requestID string) (*models.UpgradeRequest, error)
	UpdateUser(userID string, patch models.UserPatch) error
	// CreateUpgradeRequest assigns req.ID before staging the write.
	CreateUpgradeRequest(req *models.UpgradeRequest) error
	UpdateUpgradeRequest(requestID string, patch models.RequestPatch) error
}

// AccountStore runs all-or-nothing mutations over user profiles and upgrade
// requests. fn may be invoked more than once on contention, so it must not
// have side effects outside tx.
type AccountStore interface {
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, patch models.UserPatch) error
	ListByPlan(ctx context.Context, plan models.Plan) ([]*models.User, error)
	// ListExpiredPro returns pro profiles whose expiry is strictly before now.
	ListExpiredPro(ctx context.Context, now models.Millis) ([]*models.User, error)
}

// UpgradeRequestRepository defines read access to upgrade requests. Writes go
// through AccountStore.
type UpgradeRequestRepository interface {
	GetByID(ctx context.Context, requestID string) (*models.UpgradeRequest, error)
	ListByStatus(ctx context.Context, statuses ...models.RequestStatus) ([]*models.UpgradeRequest, error)
}

// ReviewRepository defines the interface for review storage operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	// List returns every review, newest first.
	List(ctx context.Context) ([]*models.Review, error)
	// ListApproved returns at most limit approved reviews, newest first.
	ListApproved(ctx context.Context, limit int) ([]*models.Review, error)
	// SetStatus moves a review from expect to next. When the stored status is
	// not expect it returns the stored review together with ErrStatusConflict.
	SetStatus(ctx context.Context, reviewID string, expect, next models.ReviewStatus) (*models.Review, error)
}

// ContactMessageRepository defines the interface for contact message storage operations.
type ContactMessageRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	// List returns every message, newest first.
	List(ctx context.Context) ([]*models.ContactMessage, error)
	// SetStatus behaves like ReviewRepository.SetStatus.
	SetStatus(ctx context.Context, messageID string, expect, next models.MessageStatus) (*models.ContactMessage, error)
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}

// Repositories bundles every store the services depend on.
type Repositories struct {
	Accounts AccountStore
	Users    UserRepository
	Requests UpgradeRequestRepository
	Reviews  ReviewRepository
	Messages ContactMessageRepository
	Audit    AuditRepository
}
