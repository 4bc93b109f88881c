package entitlement

import (
	"time"

	"eatlens-backend-go/internal/models"
)

// WindowElapsed reports whether more than ResetWindow has passed since lastReset.
func WindowElapsed(lastReset models.Millis, now time.Time) bool {
	return int64(models.MillisOf(now)-lastReset) > ResetWindow.Milliseconds()
}

// Expired reports whether a pro plan has run past its expiry. A pro profile
// without an expiry never expires.
func Expired(u models.User, now time.Time) bool {
	return u.Plan == models.PlanPro && u.PlanExpiryDate != nil && models.MillisOf(now) > *u.PlanExpiryDate
}

// Reconciliation is the outcome of bringing a profile up to date with the clock.
type Reconciliation struct {
	Patch   models.UserPatch
	Expired bool
	Reset   bool
}

// Reconcile applies the expiry check and then the reset check to u, folding
// both into one patch. An already reconciled profile yields an empty patch.
func Reconcile(u models.User, now time.Time) Reconciliation {
	var rec Reconciliation

	if Expired(u, now) {
		rec.Patch = expirePatch(now)
		rec.Expired = true
		u = rec.Patch.Apply(u)
	}

	if u.Plan == models.PlanFree && WindowElapsed(u.LastResetDate, now) {
		rec.Patch = rec.Patch.Merge(resetPatch(now))
		rec.Reset = true
	}
	return rec
}

func expirePatch(now time.Time) models.UserPatch {
	return models.UserPatch{
		Plan:          models.Ptr(models.PlanFree),
		AnalysisCount: models.Ptr(0),
		ChatCount:     models.Ptr(0),
		LastResetDate: models.Ptr(models.MillisOf(now)),
		PlanExpiry:    models.ClearExpiry(),
	}
}

func resetPatch(now time.Time) models.UserPatch {
	return models.UserPatch{
		AnalysisCount: models.Ptr(0),
		ChatCount:     models.Ptr(0),
		LastResetDate: models.Ptr(models.MillisOf(now)),
	}
}

// Increment returns the patch that records one use of f. Pro profiles are
// unmetered and get an empty patch. Quotas are not enforced here.
func Increment(u models.User, f Feature) (models.UserPatch, error) {
	if _, err := ParseFeature(string(f)); err != nil {
		return models.UserPatch{}, err
	}
	if u.Plan == models.PlanPro {
		return models.UserPatch{}, nil
	}
	if f == FeatureChat {
		return models.UserPatch{ChatCount: models.Ptr(u.ChatCount + 1)}, nil
	}
	return models.UserPatch{AnalysisCount: models.Ptr(u.AnalysisCount + 1)}, nil
}
