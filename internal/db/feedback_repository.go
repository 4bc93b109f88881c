package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eatlens-backend-go/internal/models"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

// NewFirestoreReviewRepository creates a new instance of firestoreReviewRepository.
func NewFirestoreReviewRepository(client *firestore.Client) ReviewRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ReviewRepository.")
	}
	return &firestoreReviewRepository{client: client}
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *models.Review) error {
	docRef := r.client.Collection(reviewsCollection).NewDoc()
	review.ID = docRef.ID
	if _, err := docRef.Create(ctx, review); err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *firestoreReviewRepository) List(ctx context.Context) ([]*models.Review, error) {
	query := r.client.Collection(reviewsCollection).OrderBy("submittedAt", firestore.Desc)
	return collectReviews(query.Documents(ctx))
}

func (r *firestoreReviewRepository) ListApproved(ctx context.Context, limit int) ([]*models.Review, error) {
	query := r.client.Collection(reviewsCollection).
		Where("status", "==", string(models.ReviewApproved)).
		OrderBy("submittedAt", firestore.Desc).
		Limit(limit)
	return collectReviews(query.Documents(ctx))
}

func (r *firestoreReviewRepository) SetStatus(ctx context.Context, reviewID string, expect, next models.ReviewStatus) (*models.Review, error) {
	ref := r.client.Collection(reviewsCollection).Doc(reviewID)
	var result *models.Review
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("review '%s' not found: %w", reviewID, ErrNotFound)
			}
			return err
		}
		var review models.Review
		if err := snap.DataTo(&review); err != nil {
			return fmt.Errorf("failed to decode review '%s': %w", reviewID, err)
		}
		review.ID = reviewID
		result = &review
		if review.Status != expect {
			return fmt.Errorf("review '%s' is %s: %w", reviewID, review.Status, ErrStatusConflict)
		}
		review.Status = next
		return tx.Update(ref, []firestore.Update{{Path: "status", Value: string(next)}})
	})
	return result, err
}

func collectReviews(iter *firestore.DocumentIterator) ([]*models.Review, error) {
	defer iter.Stop()

	var reviews []*models.Review
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate reviews: %w", err)
		}
		var review models.Review
		if err := doc.DataTo(&review); err != nil {
			log.Printf("Skipping undecodable review %s: %v", doc.Ref.ID, err)
			continue
		}
		review.ID = doc.Ref.ID
		reviews = append(reviews, &review)
	}
	return reviews, nil
}

type firestoreContactMessageRepository struct {
	client *firestore.Client
}

// NewFirestoreContactMessageRepository creates a new instance of firestoreContactMessageRepository.
func NewFirestoreContactMessageRepository(client *firestore.Client) ContactMessageRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ContactMessageRepository.")
	}
	return &firestoreContactMessageRepository{client: client}
}

func (r *firestoreContactMessageRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	docRef := r.client.Collection(contactMessagesCollection).NewDoc()
	msg.ID = docRef.ID
	if _, err := docRef.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (r *firestoreContactMessageRepository) List(ctx context.Context) ([]*models.ContactMessage, error) {
	iter := r.client.Collection(contactMessagesCollection).OrderBy("submittedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var messages []*models.ContactMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate contact messages: %w", err)
		}
		var msg models.ContactMessage
		if err := doc.DataTo(&msg); err != nil {
			log.Printf("Skipping undecodable contact message %s: %v", doc.Ref.ID, err)
			continue
		}
		msg.ID = doc.Ref.ID
		messages = append(messages, &msg)
	}
	return messages, nil
}

func (r *firestoreContactMessageRepository) SetStatus(ctx context.Context, messageID string, expect, next models.MessageStatus) (*models.ContactMessage, error) {
	ref := r.client.Collection(contactMessagesCollection).Doc(messageID)
	var result *models.ContactMessage
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("contact message '%s' not found: %w", messageID, ErrNotFound)
			}
			return err
		}
		var msg models.ContactMessage
		if err := snap.DataTo(&msg); err != nil {
			return fmt.Errorf("failed to decode contact message '%s': %w", messageID, err)
		}
		msg.ID = messageID
		result = &msg
		if msg.Status != expect {
			return fmt.Errorf("contact message '%s' is %s: %w", messageID, msg.Status, ErrStatusConflict)
		}
		msg.Status = next
		return tx.Update(ref, []firestore.Update{{Path: "status", Value: string(next)}})
	})
	return result, err
}
