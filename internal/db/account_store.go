package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eatlens-backend-go/internal/models"
)

// firestoreAccountStore runs plan and usage mutations in Firestore transactions.
type firestoreAccountStore struct {
	client *firestore.Client
}

// NewFirestoreAccountStore creates an AccountStore backed by client.
func NewFirestoreAccountStore(client *firestore.Client) AccountStore {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AccountStore.")
	}
	return &firestoreAccountStore{client: client}
}

func (s *firestoreAccountStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: tx})
	})
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) GetUser(userID string) (*models.User, error) {
	snap, err := t.tx.Get(t.client.Collection(usersCollection).Doc(userID))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(snap)
}

func (t *firestoreTx) GetUpgradeRequest(requestID string) (*models.UpgradeRequest, error) {
	snap, err := t.tx.Get(t.client.Collection(upgradeRequestsCollection).Doc(requestID))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("upgrade request '%s' not found: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get upgrade request '%s': %w", requestID, err)
	}
	return decodeUpgradeRequest(snap)
}

func (t *firestoreTx) UpdateUser(userID string, patch models.UserPatch) error {
	updates := userUpdates(patch)
	if len(updates) == 0 {
		return nil
	}
	return t.tx.Update(t.client.Collection(usersCollection).Doc(userID), updates)
}

func (t *firestoreTx) CreateUpgradeRequest(req *models.UpgradeRequest) error {
	ref := t.client.Collection(upgradeRequestsCollection).NewDoc()
	req.ID = ref.ID
	return t.tx.Create(ref, req)
}

func (t *firestoreTx) UpdateUpgradeRequest(requestID string, patch models.RequestPatch) error {
	updates := []firestore.Update{{Path: "status", Value: string(patch.Status)}}
	if patch.ApprovedAt != nil {
		updates = append(updates, firestore.Update{Path: "approvedAt", Value: *patch.ApprovedAt})
	}
	if patch.RejectedAt != nil {
		updates = append(updates, firestore.Update{Path: "rejectedAt", Value: *patch.RejectedAt})
	}
	return t.tx.Update(t.client.Collection(upgradeRequestsCollection).Doc(requestID), updates)
}
