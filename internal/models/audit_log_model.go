package models

import "time"

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"`                             // Who performed the action
	Action     string                 `json:"action" firestore:"action"`                             // e.g., "UPGRADE_APPROVE", "PLAN_EXPIRE"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g., "USER", "UPGRADE_REQUEST"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}

// Audit actions recorded by the plan lifecycle and moderation console.
const (
	AuditUpgradeSubmit  = "UPGRADE_SUBMIT"
	AuditUpgradeApprove = "UPGRADE_APPROVE"
	AuditUpgradeReject  = "UPGRADE_REJECT"
	AuditPlanDowngrade  = "PLAN_DOWNGRADE"
	AuditPlanExpire     = "PLAN_EXPIRE"
	AuditReviewModerate = "REVIEW_MODERATE"
	AuditMessageRead    = "MESSAGE_READ"
)

// Audit target types.
const (
	TargetUser           = "USER"
	TargetUpgradeRequest = "UPGRADE_REQUEST"
	TargetReview         = "REVIEW"
	TargetContactMessage = "CONTACT_MESSAGE"
)
