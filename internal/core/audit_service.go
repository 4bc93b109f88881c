package core

import (
	"context"
	"fmt"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	auditRepo db.AuditRepository
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(auditRepo db.AuditRepository) AuditService {
	return &auditService{
		auditRepo: auditRepo,
	}
}

// CreateAuditLog creates a new audit log entry.
func (s *auditService) CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error {
	if s.auditRepo == nil {
		return fmt.Errorf("AuditRepository not initialized in AuditService")
	}
	if logEntry.Action == "" {
		return fmt.Errorf("audit log action cannot be empty")
	}
	if err := s.auditRepo.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}
