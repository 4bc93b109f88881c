package entitlement

import (
	"fmt"
	"time"

	"eatlens-backend-go/internal/models"
)

// Transition is a planned plan change. Request is nil when no upgrade
// request is involved. NoOp means the target state already holds.
type Transition struct {
	User    models.UserPatch
	Request *models.RequestPatch
	NoOp    bool
}

// Submit plans free -> pending.
func Submit(u models.User) (Transition, error) {
	switch u.Plan {
	case models.PlanPending:
		return Transition{}, ErrAlreadyPending
	case models.PlanPro:
		return Transition{}, ErrAlreadyPro
	case models.PlanFree:
		return Transition{User: models.UserPatch{Plan: models.Ptr(models.PlanPending)}}, nil
	}
	return Transition{}, fmt.Errorf("%w: unknown plan %q", ErrInvalidTransition, u.Plan)
}

// Approve plans pending -> pro for the user owning r.
func Approve(u models.User, r models.UpgradeRequest, now time.Time) (Transition, error) {
	switch r.Status {
	case models.RequestApproved:
		return Transition{NoOp: true}, nil
	case models.RequestRejected:
		return Transition{}, fmt.Errorf("%w: request %s was already rejected", ErrInvalidTransition, r.ID)
	}
	if u.Plan != models.PlanPending {
		return Transition{}, fmt.Errorf("%w: cannot approve while plan is %s", ErrInvalidTransition, u.Plan)
	}

	at := now.UTC()
	return Transition{
		User: models.UserPatch{
			Plan:       models.Ptr(models.PlanPro),
			PlanExpiry: models.SetExpiry(models.MillisOf(now.Add(ProDuration))),
		},
		Request: &models.RequestPatch{Status: models.RequestApproved, ApprovedAt: &at},
	}, nil
}

// Reject plans pending -> free. chatCount is left as is.
func Reject(u models.User, r models.UpgradeRequest, now time.Time) (Transition, error) {
	switch r.Status {
	case models.RequestRejected:
		return Transition{NoOp: true}, nil
	case models.RequestApproved:
		return Transition{}, fmt.Errorf("%w: request %s was already approved", ErrInvalidTransition, r.ID)
	}
	if u.Plan != models.PlanPending {
		return Transition{}, fmt.Errorf("%w: cannot reject while plan is %s", ErrInvalidTransition, u.Plan)
	}

	at := now.UTC()
	return Transition{
		User: models.UserPatch{
			Plan:          models.Ptr(models.PlanFree),
			AnalysisCount: models.Ptr(0),
			LastResetDate: models.Ptr(models.MillisOf(now)),
			PlanExpiry:    models.ClearExpiry(),
		},
		Request: &models.RequestPatch{Status: models.RequestRejected, RejectedAt: &at},
	}, nil
}

// Downgrade plans an admin-initiated pro -> free. chatCount is left as is.
func Downgrade(u models.User, now time.Time) (Transition, error) {
	switch u.Plan {
	case models.PlanFree:
		return Transition{NoOp: true}, nil
	case models.PlanPending:
		return Transition{}, fmt.Errorf("%w: user has an upgrade request awaiting review", ErrInvalidTransition)
	}
	return Transition{
		User: models.UserPatch{
			Plan:          models.Ptr(models.PlanFree),
			AnalysisCount: models.Ptr(0),
			LastResetDate: models.Ptr(models.MillisOf(now)),
			PlanExpiry:    models.ClearExpiry(),
		},
	}, nil
}

// Expire plans pro -> free once the expiry has passed.
func Expire(u models.User, now time.Time) Transition {
	if !Expired(u, now) {
		return Transition{NoOp: true}
	}
	return Transition{User: expirePatch(now)}
}
