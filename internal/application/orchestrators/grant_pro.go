package orchestrators

import (
	"context"
	"log/slog"

	"voidsyn/internal/adapters/email"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/entitlement"
)

// ProRegistry is the local record of paying users.
type ProRegistry interface {
	Register(ctx context.Context, userID, source string) (bool, error)
}

// ClaimsSetter writes custom claims on the identity provider.
type ClaimsSetter interface {
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
}

// AuditRecorder persists entitlement ledger entries.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// ReceiptDeps configures the optional purchase receipt. A nil Sender or an
// empty recipient skips it.
type ReceiptDeps struct {
	Sender  email.Sender
	Offer   entitlement.Offer
	BaseURL string
}

// sendReceipt mails the purchase receipt, logging failures.
func sendReceipt(ctx context.Context, deps ReceiptDeps, to, sessionID string) {
	if deps.Sender == nil || to == "" {
		return
	}
	req, err := email.ReceiptRequest(email.Receipt{
		To:          to,
		Product:     deps.Offer.Name,
		AmountMinor: deps.Offer.AmountMinor,
		Currency:    deps.Offer.Currency,
		SessionID:   sessionID,
		BaseURL:     deps.BaseURL,
	})
	if err == nil {
		_, err = deps.Sender.Send(ctx, req)
	}
	if err != nil {
		slog.Warn("payment_event", "event", "receipt_failed", "session_id", sessionID, "error", err)
	}
}

// mirrorClaims sets pro: true on the identity provider, logging and
// auditing failures.
func mirrorClaims(ctx context.Context, claims ClaimsSetter, rec AuditRecorder, uid, source string) {
	if claims == nil {
		return
	}
	if err := claims.SetCustomClaims(ctx, uid, entitlement.ProClaims()); err != nil {
		slog.Warn("payment_event", "event", "claims_mirror_failed", "uid", uid, "error", err)
		recordAudit(ctx, rec, audit.NewEvent(audit.CategoryBilling, audit.ActionClaimsFailed, uid).
			WithSeverity(audit.SeverityWarning).
			WithSource(source).
			WithDescription(err.Error()))
	}
}

// grantEvent builds the ledger entry for a registry write.
func grantEvent(category audit.Category, uid, source, ref string, added bool) audit.Event {
	action := audit.ActionProGranted
	if !added {
		action = audit.ActionProConfirmed
	}
	return audit.NewEvent(category, action, uid).WithSource(source).WithReference(ref)
}

// recordAudit saves ev, logging failures. A nil recorder is a no-op.
func recordAudit(ctx context.Context, rec AuditRecorder, ev audit.Event) {
	if rec == nil {
		return
	}
	if err := rec.Save(ctx, ev); err != nil {
		slog.Warn("audit_event", "event", "audit_write_failed", "action", ev.Action, "subject", ev.SubjectID, "error", err)
	}
}
