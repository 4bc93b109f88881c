package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eatlens-backend-go/internal/models"
)

// firestoreUserRepository implements the UserRepository interface using Firestore.
type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UserRepository.")
	}
	return &firestoreUserRepository{client: client}
}

// Create adds a new user document. The Firebase Auth UID is the document ID.
func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s': %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves a user document from Firestore by its ID (Firebase Auth UID).
func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(docSnap)
}

// Update applies patch to an existing user document. Fields not named in the
// patch are untouched, and a cleared expiry is deleted in the same write.
func (r *firestoreUserRepository) Update(ctx context.Context, userID string, patch models.UserPatch) error {
	if userID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	updates := userUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return nil
}

func (r *firestoreUserRepository) ListByPlan(ctx context.Context, plan models.Plan) ([]*models.User, error) {
	query := r.client.Collection(usersCollection).Where("plan", "==", string(plan))
	users, err := collectUsers(query.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list users with plan '%s': %w", plan, err)
	}
	return users, nil
}

// ListExpiredPro needs a composite index on (plan, planExpiryDate).
func (r *firestoreUserRepository) ListExpiredPro(ctx context.Context, now models.Millis) ([]*models.User, error) {
	query := r.client.Collection(usersCollection).
		Where("plan", "==", string(models.PlanPro)).
		Where("planExpiryDate", "<", int64(now))
	users, err := collectUsers(query.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list expired pro users: %w", err)
	}
	return users, nil
}

func collectUsers(iter *firestore.DocumentIterator) ([]*models.User, error) {
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		user, err := decodeUser(doc)
		if err != nil {
			log.Printf("Skipping undecodable user document %s: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(docSnap *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", docSnap.Ref.ID, err)
	}
	user.ID = docSnap.Ref.ID
	return &user, nil
}

// userUpdates translates a patch into field updates. A cleared expiry becomes
// firestore.Delete so the removal commits together with the other fields.
func userUpdates(p models.UserPatch) []firestore.Update {
	var updates []firestore.Update
	if p.Plan != nil {
		updates = append(updates, firestore.Update{Path: "plan", Value: string(*p.Plan)})
	}
	if p.AnalysisCount != nil {
		updates = append(updates, firestore.Update{Path: "analysisCount", Value: *p.AnalysisCount})
	}
	if p.ChatCount != nil {
		updates = append(updates, firestore.Update{Path: "chatCount", Value: *p.ChatCount})
	}
	if p.LastResetDate != nil {
		updates = append(updates, firestore.Update{Path: "lastResetDate", Value: int64(*p.LastResetDate)})
	}
	switch p.PlanExpiry.Op {
	case models.ExpirySet:
		updates = append(updates, firestore.Update{Path: "planExpiryDate", Value: int64(p.PlanExpiry.At)})
	case models.ExpiryClear:
		updates = append(updates, firestore.Update{Path: "planExpiryDate", Value: firestore.Delete})
	}
	if p.HealthGoal != nil {
		updates = append(updates, firestore.Update{Path: "healthGoal", Value: *p.HealthGoal})
	}
	return updates
}
