package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/entitlement"
	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/models"
)

type planService struct {
	accounts db.AccountStore
	users    db.UserRepository
	clock    Clock
	recorder
}

// NewPlanService creates a new PlanService instance.
func NewPlanService(accounts db.AccountStore, users db.UserRepository, audit AuditService, publisher events.Publisher, clock Clock, logger *zap.Logger) PlanService {
	return &planService{
		accounts: accounts,
		users:    users,
		clock:    clock,
		recorder: recorder{audit: audit, publisher: publisher, logger: logger},
	}
}

// SubmitUpgradeRequest files the payment proof and moves the plan to pending
// in one transaction.
func (s *planService) SubmitUpgradeRequest(ctx context.Context, sess *Session, sub models.UpgradeSubmission) (*models.UpgradeRequest, error) {
	name := strings.TrimSpace(sub.NameOnPayment)
	utr := strings.TrimSpace(sub.UTRNumber)
	if name == "" || utr == "" {
		return nil, ErrInvalidSubmission
	}

	planned, err := entitlement.Submit(sess.Profile())
	if err != nil {
		return nil, err
	}

	uid := sess.UserID()
	now := s.clock.Now()
	var (
		req    *models.UpgradeRequest
		stored models.User
	)
	err = sess.Optimistic(planned.User, func() error {
		return s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			u, err := tx.GetUser(uid)
			if err != nil {
				return err
			}
			tr, err := entitlement.Submit(*u)
			if err != nil {
				return err
			}
			email := u.Email
			if email == "" {
				email = sess.Identity().Email
			}
			r := &models.UpgradeRequest{
				UserID:        uid,
				UserEmail:     email,
				NameOnPayment: name,
				UTRNumber:     utr,
				Status:        models.RequestPending,
				SubmittedAt:   now.UTC(),
			}
			if err := tx.CreateUpgradeRequest(r); err != nil {
				return err
			}
			if err := tx.UpdateUser(uid, tr.User); err != nil {
				return err
			}
			req = r
			stored = tr.User.Apply(*u)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, entitlement.ErrAlreadyPending) || errors.Is(err, entitlement.ErrAlreadyPro) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit upgrade request: %w", notFoundAs(err, ErrUserNotFound))
	}

	sess.Replace(stored)
	stored.ID = uid
	s.logger.Info("Upgrade request submitted", zap.String("uid", uid), zap.String("request_id", req.ID))
	s.record(ctx, models.AuditLog{
		UserID:     uid,
		Action:     models.AuditUpgradeSubmit,
		TargetType: models.TargetUpgradeRequest,
		TargetID:   req.ID,
	}, planEvent(events.UpgradeRequested, &stored, req.ID, now))
	return req, nil
}

// requestTransition plans a change from the stored request and its owner.
type requestTransition func(u models.User, r models.UpgradeRequest) (entitlement.Transition, error)

func (s *planService) decide(ctx context.Context, requestID string, plan requestTransition) (*TransitionResult, error) {
	var result TransitionResult
	err := s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		r, err := tx.GetUpgradeRequest(requestID)
		if err != nil {
			return notFoundAs(err, ErrRequestNotFound)
		}
		u, err := tx.GetUser(r.UserID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		tr, err := plan(*u, *r)
		if err != nil {
			return err
		}
		result = TransitionResult{Request: r, User: u, NoOp: tr.NoOp}
		if tr.NoOp {
			return nil
		}
		if err := tx.UpdateUpgradeRequest(requestID, *tr.Request); err != nil {
			return err
		}
		if err := tx.UpdateUser(r.UserID, tr.User); err != nil {
			return err
		}
		nextReq := tr.Request.Apply(*r)
		nextUser := tr.User.Apply(*u)
		result.Request, result.User = &nextReq, &nextUser
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.User.ID = result.Request.UserID
	return &result, nil
}

func (s *planService) ApproveRequest(ctx context.Context, adminID, requestID string) (*TransitionResult, error) {
	now := s.clock.Now()
	res, err := s.decide(ctx, requestID, func(u models.User, r models.UpgradeRequest) (entitlement.Transition, error) {
		return entitlement.Approve(u, r, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve request '%s': %w", requestID, err)
	}
	if res.NoOp {
		return res, nil
	}

	s.logger.Info("Upgrade request approved", zap.String("request_id", requestID), zap.String("uid", res.User.ID), zap.String("admin_id", adminID))
	s.record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     models.AuditUpgradeApprove,
		TargetType: models.TargetUpgradeRequest,
		TargetID:   requestID,
		Details:    map[string]interface{}{"userId": res.User.ID, "planExpiryDate": int64(*res.User.PlanExpiryDate)},
	}, planEvent(events.UpgradeApproved, res.User, requestID, now))
	return res, nil
}

func (s *planService) RejectRequest(ctx context.Context, adminID, requestID string) (*TransitionResult, error) {
	now := s.clock.Now()
	res, err := s.decide(ctx, requestID, func(u models.User, r models.UpgradeRequest) (entitlement.Transition, error) {
		return entitlement.Reject(u, r, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reject request '%s': %w", requestID, err)
	}
	if res.NoOp {
		return res, nil
	}

	s.logger.Info("Upgrade request rejected", zap.String("request_id", requestID), zap.String("uid", res.User.ID), zap.String("admin_id", adminID))
	s.record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     models.AuditUpgradeReject,
		TargetType: models.TargetUpgradeRequest,
		TargetID:   requestID,
		Details:    map[string]interface{}{"userId": res.User.ID},
	}, planEvent(events.UpgradeRejected, res.User, requestID, now))
	return res, nil
}

func (s *planService) DowngradeUser(ctx context.Context, adminID, userID string) (*TransitionResult, error) {
	now := s.clock.Now()
	var result TransitionResult
	err := s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}
		tr, err := entitlement.Downgrade(*u, now)
		if err != nil {
			return err
		}
		result = TransitionResult{User: u, NoOp: tr.NoOp}
		if tr.NoOp {
			return nil
		}
		if err := tx.UpdateUser(userID, tr.User); err != nil {
			return err
		}
		next := tr.User.Apply(*u)
		result.User = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to downgrade user '%s': %w", userID, err)
	}
	result.User.ID = userID
	if result.NoOp {
		return &result, nil
	}

	s.logger.Info("User downgraded", zap.String("uid", userID), zap.String("admin_id", adminID))
	s.record(ctx, models.AuditLog{
		UserID:     adminID,
		Action:     models.AuditPlanDowngrade,
		TargetType: models.TargetUser,
		TargetID:   userID,
	}, planEvent(events.PlanDowngraded, result.User, "", now))
	return &result, nil
}

func (s *planService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.users.ListExpiredPro(ctx, models.MillisOf(now))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired pro users: %w", err)
	}

	var (
		expired int
		errs    []error
	)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		var next models.User
		changed := false
		err := s.accounts.RunTransaction(ctx, func(ctx context.Context, tx db.Tx) error {
			u, err := tx.GetUser(c.ID)
			if err != nil {
				return err
			}
			tr := entitlement.Expire(*u, now)
			changed = !tr.NoOp
			if tr.NoOp {
				return nil
			}
			next = tr.User.Apply(*u)
			return tx.UpdateUser(c.ID, tr.User)
		})
		if err != nil {
			s.logger.Error("Failed to expire pro plan", zap.String("uid", c.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("expire '%s': %w", c.ID, err))
			continue
		}
		if !changed {
			continue
		}
		expired++
		next.ID = c.ID
		s.record(ctx, models.AuditLog{
			UserID:     c.ID,
			Action:     models.AuditPlanExpire,
			TargetType: models.TargetUser,
			TargetID:   c.ID,
			Details:    map[string]interface{}{"trigger": "sweep"},
		}, planEvent(events.PlanExpired, &next, "", now))
	}

	if expired > 0 {
		s.logger.Info("Expired pro plans swept", zap.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}
