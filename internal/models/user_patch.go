package models

// ExpiryOp selects what an update does to planExpiryDate.
type ExpiryOp int

const (
	ExpiryKeep ExpiryOp = iota
	ExpirySet
	ExpiryClear
)

// ExpiryUpdate is a tagged optional for planExpiryDate. Clearing is part of
// the same update as every other field in the patch.
type ExpiryUpdate struct {
	Op ExpiryOp
	At Millis
}

// SetExpiry returns an update that stores at as the expiry.
func SetExpiry(at Millis) ExpiryUpdate {
	return ExpiryUpdate{Op: ExpirySet, At: at}
}

// ClearExpiry returns an update that removes the expiry field.
func ClearExpiry() ExpiryUpdate {
	return ExpiryUpdate{Op: ExpiryClear}
}

// UserPatch is a partial update to a user profile. Nil fields are left untouched.
type UserPatch struct {
	Plan          *Plan
	AnalysisCount *int
	ChatCount     *int
	LastResetDate *Millis
	PlanExpiry    ExpiryUpdate
	HealthGoal    *string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Plan == nil && p.AnalysisCount == nil && p.ChatCount == nil &&
		p.LastResetDate == nil && p.PlanExpiry.Op == ExpiryKeep && p.HealthGoal == nil
}

// Merge returns p with every field set in next taking precedence.
func (p UserPatch) Merge(next UserPatch) UserPatch {
	out := p
	if next.Plan != nil {
		out.Plan = next.Plan
	}
	if next.AnalysisCount != nil {
		out.AnalysisCount = next.AnalysisCount
	}
	if next.ChatCount != nil {
		out.ChatCount = next.ChatCount
	}
	if next.LastResetDate != nil {
		out.LastResetDate = next.LastResetDate
	}
	if next.PlanExpiry.Op != ExpiryKeep {
		out.PlanExpiry = next.PlanExpiry
	}
	if next.HealthGoal != nil {
		out.HealthGoal = next.HealthGoal
	}
	return out
}

// Apply returns a copy of u with the patch applied.
func (p UserPatch) Apply(u User) User {
	if p.Plan != nil {
		u.Plan = *p.Plan
	}
	if p.AnalysisCount != nil {
		u.AnalysisCount = *p.AnalysisCount
	}
	if p.ChatCount != nil {
		u.ChatCount = *p.ChatCount
	}
	if p.LastResetDate != nil {
		u.LastResetDate = *p.LastResetDate
	}
	switch p.PlanExpiry.Op {
	case ExpirySet:
		at := p.PlanExpiry.At
		u.PlanExpiryDate = &at
	case ExpiryClear:
		u.PlanExpiryDate = nil
	}
	if p.HealthGoal != nil {
		u.HealthGoal = *p.HealthGoal
	}
	return u
}

// Invert returns the patch that restores the fields p touches to their value in u.
func (p UserPatch) Invert(u User) UserPatch {
	var back UserPatch
	if p.Plan != nil {
		back.Plan = Ptr(u.Plan)
	}
	if p.AnalysisCount != nil {
		back.AnalysisCount = Ptr(u.AnalysisCount)
	}
	if p.ChatCount != nil {
		back.ChatCount = Ptr(u.ChatCount)
	}
	if p.LastResetDate != nil {
		back.LastResetDate = Ptr(u.LastResetDate)
	}
	if p.PlanExpiry.Op != ExpiryKeep {
		if u.PlanExpiryDate != nil {
			back.PlanExpiry = SetExpiry(*u.PlanExpiryDate)
		} else {
			back.PlanExpiry = ClearExpiry()
		}
	}
	if p.HealthGoal != nil {
		back.HealthGoal = Ptr(u.HealthGoal)
	}
	return back
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
