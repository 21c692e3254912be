package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/adapters/storage/prouser"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/entitlement"
	"voidsyn/internal/domain/user"
)

// Payment confirmation errors
var (
	ErrMissingSessionID = errors.New("missing session id")
	ErrPaymentNotPaid   = errors.New("checkout session is not paid")
	ErrSessionMismatch  = errors.New("checkout session belongs to another user")
	ErrSessionLookup    = errors.New("checkout session lookup failed")
)

// CheckoutRetriever looks up checkout sessions by id.
type CheckoutRetriever interface {
	GetCheckoutSession(ctx context.Context, id string) (payment.CheckoutSession, error)
}

// ConfirmPaymentInput carries the session id from the success redirect.
type ConfirmPaymentInput struct {
	SessionID string
	User      *user.User
}

// ConfirmPaymentDeps holds dependencies for ConfirmPayment.
type ConfirmPaymentDeps struct {
	Payments CheckoutRetriever
	Registry ProRegistry
	Claims   ClaimsSetter
	Audit    AuditRecorder
	Receipt  ReceiptDeps
}

// ExecuteConfirmPayment grants Pro access after the processor reports the
// session as paid.
// PRE: input.User is authenticated
// POST: on success the user is registered locally; the claim mirror and
// receipt are attempted but never fail the call
func ExecuteConfirmPayment(ctx context.Context, input ConfirmPaymentInput, deps ConfirmPaymentDeps) (payment.CheckoutSession, error) {
	if input.User == nil || input.User.UID == "" {
		return payment.CheckoutSession{}, ErrNotAuthenticated
	}
	id := strings.TrimSpace(input.SessionID)
	if id == "" {
		return payment.CheckoutSession{}, ErrMissingSessionID
	}
	if deps.Payments == nil {
		return payment.CheckoutSession{}, ErrPaymentsUnavailable
	}

	sess, err := deps.Payments.GetCheckoutSession(ctx, id)
	if err != nil {
		slog.Warn("payment_event", "event", "checkout_lookup_failed", "session_id", id, "error", err)
		return payment.CheckoutSession{}, fmt.Errorf("%w: %v", ErrSessionLookup, err)
	}
	if entitlement.StateForPaymentStatus(sess.PaymentStatus) != entitlement.StatePaid {
		return sess, ErrPaymentNotPaid
	}
	// INVARIANT: a paid session only unlocks the user it was created for
	if sess.UserID != "" && sess.UserID != input.User.UID {
		slog.Warn("payment_event", "event", "checkout_user_mismatch", "session_id", id, "uid", input.User.UID)
		return sess, ErrSessionMismatch
	}

	added, err := deps.Registry.Register(ctx, input.User.UID, prouser.SourceSuccess)
	if err != nil {
		return sess, fmt.Errorf("register pro user: %w", err)
	}
	recordAudit(ctx, deps.Audit, grantEvent(audit.CategoryBilling, input.User.UID, prouser.SourceSuccess, id, added))
	mirrorClaims(ctx, deps.Claims, deps.Audit, input.User.UID, prouser.SourceSuccess)
	slog.Info("payment_event", "event", "payment_confirmed", "uid", input.User.UID, "session_id", id, "new", added)

	if added {
		to := input.User.Email
		if to == "" {
			to = sess.Email
		}
		sendReceipt(ctx, deps.Receipt, to, id)
	}
	return sess, nil
}
