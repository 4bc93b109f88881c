package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/models"
)

type usageService struct {
	accounts db.AccountStore
	clock    Clock
	logger   *zap.Logger
}

// NewUsageService creates a new UsageService instance.
func NewUsageService(accounts db.AccountStore, clock Clock, logger *zap.Logger) UsageService {
	return &usageService{accounts: accounts, clock: clock, logger: logger}
}

// RecordUsage counts one use of feature. The session is updated before the
// write and reverted if it fails. Quotas are checked by the gate, not here.
func (s *usageService) RecordUsage(ctx context.Context, sess *Session, feature entitlement.Feature) (*models.User, error) {
	local, err := entitlement.Increment(sess.Profile(), feature)
	if err != nil {
		return nil, err
	}
	if local.IsEmpty() {
		u := sess.Profile()
		return &u, nil
	}

	uid := sess.UserID()
	var stored models.User
	err = sess.Optimistic(local, func() error {
		return s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			u, err := tx.GetUser(uid)
			if err != nil {
				return err
			}
			rec := entitlement.Reconcile(*u, s.clock.Now())
			inc, err := entitlement.Increment(rec.Patch.Apply(*u), feature)
			if err != nil {
				return err
			}
			patch := rec.Patch.Merge(inc)
			if err := tx.UpdateUser(uid, patch); err != nil {
				return err
			}
			stored = patch.Apply(*u)
			return nil
		})
	})
	if err != nil {
		s.logger.Warn("Usage increment rolled back", zap.String("uid", uid), zap.String("feature", string(feature)), zap.Error(err))
		return nil, fmt.Errorf("failed to record %s usage: %w", feature, notFoundAs(err, ErrUserNotFound))
	}

	sess.Replace(stored)
	out := sess.Profile()
	return &out, nil
}
