package models

import "time"

// Plan is the entitlement state of a user profile.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPending Plan = "pending"
	PlanPro     Plan = "pro"
)

// Role grants access to the moderation console when set to admin.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultHealthGoal is assigned to every new profile.
const DefaultHealthGoal = "General Health"

// Millis is an absolute timestamp in Unix milliseconds. Entitlement math
// (reset windows, plan expiry) is done on these values directly.
type Millis int64

// MillisOf converts t to Unix milliseconds.
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time converts m back to a UTC time.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// User represents the profile stored for each authenticated identity.
type User struct {
	ID             string  `json:"id" firestore:"-"` // Firebase Auth UID, will be the document ID
	Name           string  `json:"name" firestore:"name"`
	Email          string  `json:"email" firestore:"email"`
	Plan           Plan    `json:"plan" firestore:"plan"`
	AnalysisCount  int     `json:"analysisCount" firestore:"analysisCount"`
	ChatCount      int     `json:"chatCount" firestore:"chatCount"`
	LastResetDate  Millis  `json:"lastResetDate" firestore:"lastResetDate"`
	PlanExpiryDate *Millis `json:"planExpiryDate,omitempty" firestore:"planExpiryDate,omitempty"`
	HealthGoal     string  `json:"healthGoal" firestore:"healthGoal"`
	Role           Role    `json:"role,omitempty" firestore:"role,omitempty"`
}

// IsAdmin reports whether the profile may use the moderation console.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
