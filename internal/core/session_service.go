package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/models"
)

type sessionService struct {
	accounts   db.AccountStore
	identities identity.Provider
	clock      Clock
	recorder
}

// NewSessionService creates a new SessionService instance.
func NewSessionService(accounts db.AccountStore, identities identity.Provider, audit AuditService, publisher events.Publisher, clock Clock, logger *zap.Logger) SessionService {
	return &sessionService{
		accounts:   accounts,
		identities: identities,
		clock:      clock,
		recorder:   recorder{audit: audit, publisher: publisher, logger: logger},
	}
}

func (s *sessionService) Bootstrap(ctx context.Context, id identity.Identity) (*Session, error) {
	if !id.EmailVerified {
		return nil, ErrUnverifiedIdentity
	}

	now := s.clock.Now()
	var (
		profile models.User
		rec     entitlement.Reconciliation
	)
	err := s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		u, err := tx.GetUser(id.UID)
		if err != nil {
			return err
		}
		rec = entitlement.Reconcile(*u, now)
		profile = rec.Patch.Apply(*u)
		return tx.UpdateUser(id.UID, rec.Patch)
	})
	if errors.Is(err, db.ErrNotFound) {
		if rerr := s.identities.RevokeSessions(ctx, id.UID); rerr != nil {
			s.logger.Error("Failed to revoke sessions of orphaned identity", zap.String("uid", id.UID), zap.Error(rerr))
		}
		s.logger.Warn("Identity has no profile; signing out", zap.String("uid", id.UID))
		return nil, ErrOrphanedIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap session for '%s': %w", id.UID, err)
	}

	if rec.Expired {
		profile.ID = id.UID
		s.record(ctx, models.AuditLog{
			UserID:     id.UID,
			Action:     models.AuditPlanExpire,
			TargetType: models.TargetUser,
			TargetID:   id.UID,
			Details:    map[string]interface{}{"trigger": "session"},
		}, planEvent(events.PlanExpired, &profile, "", now))
	}
	if rec.Reset {
		s.logger.Debug("Usage window reset", zap.String("uid", id.UID))
	}

	return NewSession(id, profile), nil
}
