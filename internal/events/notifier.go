package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/mailer"
)

// Notifier turns plan events into user emails.
type Notifier struct {
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(mail mailer.Mailer, logger *zap.Logger) *Notifier {
	return &Notifier{mail: mail, logger: logger}
}

// Handle is an events.Handler.
func (n *Notifier) Handle(ctx context.Context, event PlanEvent) error {
	subject, body, ok := Render(event)
	if !ok {
		n.logger.Debug("No notification for event", zap.String("type", string(event.Type)))
		return nil
	}
	if event.Email == "" {
		n.logger.Warn("Plan event without recipient email", zap.String("type", string(event.Type)), zap.String("user_id", event.UserID))
		return nil
	}
	if err := n.mail.Send(ctx, event.Email, subject, body); err != nil {
		return fmt.Errorf("notify %s about %s: %w", event.UserID, event.Type, err)
	}
	n.logger.Info("Plan notification sent", zap.String("type", string(event.Type)), zap.String("user_id", event.UserID))
	return nil
}

// Render returns the email for event, or ok=false when none is sent.
func Render(event PlanEvent) (subject, body string, ok bool) {
	name := event.Name
	if name == "" {
		name = "there"
	}
	switch event.Type {
	case UpgradeRequested:
		return "We received your EatLens Pro request",
			fmt.Sprintf("<p>Hi %s,</p><p>Thanks for upgrading. We are verifying your payment and will activate Pro shortly.</p>", name), true
	case UpgradeApproved:
		until := ""
		if event.ExpiresAt != nil {
			until = " until " + event.ExpiresAt.Format("2 January 2006")
		}
		return "Your EatLens Pro plan is active",
			fmt.Sprintf("<p>Hi %s,</p><p>Your payment was verified. Pro features are unlocked%s.</p>", name, until), true
	case UpgradeRejected:
		return "We could not verify your EatLens payment",
			fmt.Sprintf("<p>Hi %s,</p><p>We were unable to verify your payment. Your account is back on the free plan. Reply to this email if you believe this is a mistake.</p>", name), true
	case PlanExpired:
		return "Your EatLens Pro plan has ended",
			fmt.Sprintf("<p>Hi %s,</p><p>Your 30 days of Pro have ended and your account is on the free plan again. You can renew at any time.</p>", name), true
	case PlanDowngraded:
		return "Your EatLens plan has changed",
			fmt.Sprintf("<p>Hi %s,</p><p>Your account has been moved to the free plan.</p>", name), true
	}
	return "", "", false
}
