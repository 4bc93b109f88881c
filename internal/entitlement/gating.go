package entitlement

import (
	"fmt"

	"eatlens-backend-go/internal/models"
)

// CanAnalyze reports whether a meal analysis may run.
func CanAnalyze(u models.User) bool {
	return u.Plan == models.PlanPro || (u.Plan == models.PlanFree && u.AnalysisCount < AnalysisLimit)
}

// CanChat reports whether another chat turn may run.
func CanChat(u models.User) bool {
	return u.Plan == models.PlanPro || (u.Plan == models.PlanFree && u.ChatCount < ChatLimit)
}

// CanUseProFeature reports whether pro-only capabilities are unlocked.
func CanUseProFeature(u models.User) bool {
	return u.Plan == models.PlanPro
}

// Reason explains a gate decision to the client.
type Reason string

const (
	ReasonAllowed          Reason = "allowed"
	ReasonQuotaExhausted   Reason = "quota_exhausted"
	ReasonAwaitingApproval Reason = "awaiting_approval"
	ReasonProRequired      Reason = "pro_required"
)

// Decision is the result of gating one action. Limit and Remaining are
// omitted for unmetered actions.
type Decision struct {
	Action    string `json:"action"`
	Allowed   bool   `json:"allowed"`
	Reason    Reason `json:"reason"`
	Used      *int   `json:"used,omitempty"`
	Limit     *int   `json:"limit,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// Evaluate gates action, which is either a metered Feature or a ProFeature.
func Evaluate(u models.User, action string) (Decision, error) {
	if f, err := ParseFeature(action); err == nil {
		return evaluateMetered(u, f), nil
	}
	if _, err := ParseProFeature(action); err == nil {
		return evaluatePro(u, action), nil
	}
	return Decision{}, fmt.Errorf("%w: %q", ErrUnknownFeature, action)
}

// EvaluateAll gates every metered and pro action for u.
func EvaluateAll(u models.User) []Decision {
	out := []Decision{
		evaluateMetered(u, FeatureAnalysis),
		evaluateMetered(u, FeatureChat),
	}
	for _, f := range ProFeatures() {
		out = append(out, evaluatePro(u, string(f)))
	}
	return out
}

func evaluateMetered(u models.User, f Feature) Decision {
	d := Decision{Action: string(f)}
	if u.Plan == models.PlanPro {
		d.Allowed = true
		d.Reason = ReasonAllowed
		return d
	}

	used := u.AnalysisCount
	allowed := CanAnalyze(u)
	if f == FeatureChat {
		used = u.ChatCount
		allowed = CanChat(u)
	}
	limit := f.Limit()
	d.Used = models.Ptr(used)
	d.Limit = models.Ptr(limit)
	d.Remaining = models.Ptr(max(limit-used, 0))

	switch {
	case u.Plan == models.PlanPending:
		d.Reason = ReasonAwaitingApproval
	case allowed:
		d.Allowed = true
		d.Reason = ReasonAllowed
	default:
		d.Reason = ReasonQuotaExhausted
	}
	return d
}

func evaluatePro(u models.User, action string) Decision {
	d := Decision{Action: action}
	switch {
	case CanUseProFeature(u):
		d.Allowed = true
		d.Reason = ReasonAllowed
	case u.Plan == models.PlanPending:
		d.Reason = ReasonAwaitingApproval
	default:
		d.Reason = ReasonProRequired
	}
	return d
}
