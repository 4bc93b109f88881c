// Package events carries plan lifecycle notifications from the API to the
// worker over RabbitMQ.
package events

import (
	"context"
	"time"

	"eatlens-backend-go/internal/models"
)

// Type names a plan lifecycle event.
type Type string

const (
	UpgradeRequested Type = "upgrade.requested"
	UpgradeApproved  Type = "upgrade.approved"
	UpgradeRejected  Type = "upgrade.rejected"
	PlanDowngraded   Type = "plan.downgraded"
	PlanExpired      Type = "plan.expired"
)

// PlanEvent is published after a plan transition commits.
type PlanEvent struct {
	Type       Type        `json:"type"`
	UserID     string      `json:"userId"`
	Email      string      `json:"email"`
	Name       string      `json:"name,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
	Plan       models.Plan `json:"plan"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Publisher emits plan events. Failures never undo a committed transition.
type Publisher interface {
	Publish(ctx context.Context, event PlanEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, PlanEvent) error { return nil }
