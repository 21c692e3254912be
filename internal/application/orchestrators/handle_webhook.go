package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/adapters/storage/prouser"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/entitlement"
)

// ErrClaimsUpdate means the identity provider rejected the pro claim; the
// processor should redeliver the event.
var ErrClaimsUpdate = errors.New("failed to set pro claims")

// WebhookParser verifies and decodes processor webhook deliveries.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (payment.WebhookEvent, error)
}

// HandleWebhookInput carries the raw delivery.
type HandleWebhookInput struct {
	Payload   []byte
	Signature string
}

// HandleWebhookDeps holds dependencies for HandleWebhook.
type HandleWebhookDeps struct {
	Payments WebhookParser
	Registry ProRegistry
	Claims   ClaimsSetter
	Audit    AuditRecorder
	Receipt  ReceiptDeps
}

// ExecuteHandleWebhook applies a verified webhook event.
// PRE: Payload is the unmodified request body
// POST: for checkout.session.completed with a user_id, the user carries
// pro: true claims; other events are acknowledged without effect
func ExecuteHandleWebhook(ctx context.Context, input HandleWebhookInput, deps HandleWebhookDeps) error {
	if deps.Payments == nil {
		return ErrPaymentsUnavailable
	}
	event, err := deps.Payments.ParseWebhook(input.Payload, input.Signature)
	if err != nil {
		slog.Warn("payment_event", "event", "webhook_rejected", "error", err)
		return err
	}
	if event.Type != payment.EventCheckoutCompleted || event.Session == nil || event.Session.UserID == "" {
		slog.Debug("payment_event", "event", "webhook_ignored", "type", event.Type, "id", event.ID)
		return nil
	}

	uid := event.Session.UserID
	added := false
	if deps.Registry != nil {
		added, err = deps.Registry.Register(ctx, uid, prouser.SourceWebhook)
		if err != nil {
			slog.Warn("payment_event", "event", "webhook_register_failed", "uid", uid, "error", err)
		} else {
			recordAudit(ctx, deps.Audit, grantEvent(audit.CategoryBilling, uid, prouser.SourceWebhook, event.Session.ID, added))
		}
	}
	if deps.Claims != nil {
		if err := deps.Claims.SetCustomClaims(ctx, uid, entitlement.ProClaims()); err != nil {
			recordAudit(ctx, deps.Audit, audit.NewEvent(audit.CategoryBilling, audit.ActionClaimsFailed, uid).
				WithSeverity(audit.SeverityWarning).
				WithSource(prouser.SourceWebhook).
				WithReference(event.Session.ID).
				WithDescription(err.Error()))
			return fmt.Errorf("%w: %v", ErrClaimsUpdate, err)
		}
	}
	slog.Info("payment_event", "event", "webhook_pro_granted", "uid", uid, "session_id", event.Session.ID)
	if added {
		sendReceipt(ctx, deps.Receipt, event.Session.Email, event.Session.ID)
	}
	return nil
}
