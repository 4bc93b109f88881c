package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/events"
	"eatlens-backend-go/internal/models"
)

// recorder writes the audit entry and publishes the event for a committed
// transition. Neither failure undoes the transition; both are logged.
type recorder struct {
	audit     AuditService
	publisher events.Publisher
	logger    *zap.Logger
}

func (r *recorder) record(ctx context.Context, entry models.AuditLog, event *events.PlanEvent) {
	if err := r.audit.CreateAuditLog(ctx, entry); err != nil {
		r.logger.Warn("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err))
	}
	if event == nil {
		return
	}
	if err := r.publisher.Publish(ctx, *event); err != nil {
		r.logger.Warn("Failed to publish plan event",
			zap.String("type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}

func planEvent(typ events.Type, u *models.User, requestID string, now time.Time) *events.PlanEvent {
	ev := &events.PlanEvent{
		Type:       typ,
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		RequestID:  requestID,
		Plan:       u.Plan,
		OccurredAt: now,
	}
	if u.PlanExpiryDate != nil {
		exp := u.PlanExpiryDate.Time()
		ev.ExpiresAt = &exp
	}
	return ev
}
