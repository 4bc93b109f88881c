package db

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"eatlens-backend-go/internal/models"
)

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates a new instance of firestoreAuditRepository.
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for AuditRepository.")
	}
	return &firestoreAuditRepository{client: client}
}

// Create appends an audit entry. Timestamp is filled in by the server.
func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to write audit log '%s': %w", logEntry.Action, err)
	}
	return nil
}
