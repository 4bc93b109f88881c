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

type firestoreUpgradeRequestRepository struct {
	client *firestore.Client
}

// NewFirestoreUpgradeRequestRepository creates a new instance of firestoreUpgradeRequestRepository.
func NewFirestoreUpgradeRequestRepository(client *firestore.Client) UpgradeRequestRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for UpgradeRequestRepository.")
	}
	return &firestoreUpgradeRequestRepository{client: client}
}

func (r *firestoreUpgradeRequestRepository) GetByID(ctx context.Context, requestID string) (*models.UpgradeRequest, error) {
	if requestID == "" {
		return nil, errors.New("requestID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(upgradeRequestsCollection).Doc(requestID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upgrade request '%s': %w", requestID, err)
	}
	return decodeUpgradeRequest(docSnap)
}

// ListByStatus returns requests in any of statuses, unordered.
func (r *firestoreUpgradeRequestRepository) ListByStatus(ctx context.Context, statuses ...models.RequestStatus) ([]*models.UpgradeRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	iter := r.client.Collection(upgradeRequestsCollection).Where("status", "in", values).Documents(ctx)
	defer iter.Stop()

	var requests []*models.UpgradeRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate upgrade requests: %w", err)
		}
		req, err := decodeUpgradeRequest(doc)
		if err != nil {
			log.Printf("Skipping undecodable upgrade request %s: %v", doc.Ref.ID, err)
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func decodeUpgradeRequest(docSnap *firestore.DocumentSnapshot) (*models.UpgradeRequest, error) {
	var req models.UpgradeRequest
	if err := docSnap.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to decode upgrade request '%s': %w", docSnap.Ref.ID, err)
	}
	req.ID = docSnap.Ref.ID
	return &req, nil
}
