package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/domain/entitlement"
	"voidsyn/internal/domain/user"
)

// Checkout errors
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrPaymentsUnavailable = errors.New("payments are not configured")
)

// CheckoutCreator opens hosted checkout sessions.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error)
}

// CreateCheckoutInput carries the buyer and the public base URL used for
// the return links.
type CreateCheckoutInput struct {
	User    *user.User
	BaseURL string
}

// CreateCheckoutDeps holds dependencies for CreateCheckout.
type CreateCheckoutDeps struct {
	Payments CheckoutCreator
	Offer    entitlement.Offer
}

// CreateCheckoutResult identifies the new session.
type CreateCheckoutResult struct {
	SessionID string
	URL       string
}

// ExecuteCreateCheckout starts a Pro purchase for the signed-in user.
// PRE: input.User is authenticated
// POST: the session metadata carries user_id and user_email so the webhook
// can attribute the payment
func ExecuteCreateCheckout(ctx context.Context, input CreateCheckoutInput, deps CreateCheckoutDeps) (CreateCheckoutResult, error) {
	if input.User == nil || input.User.UID == "" {
		return CreateCheckoutResult{}, ErrNotAuthenticated
	}
	if deps.Payments == nil {
		return CreateCheckoutResult{}, ErrPaymentsUnavailable
	}
	base := strings.TrimRight(input.BaseURL, "/")
	sess, err := deps.Payments.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:         input.User.UID,
		Email:          input.User.Email,
		ProductName:    deps.Offer.Name,
		Description:    deps.Offer.Description,
		AmountMinor:    deps.Offer.AmountMinor,
		Currency:       deps.Offer.Currency,
		SuccessURL:     base + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      base + "/pricing",
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		slog.Warn("payment_event", "event", "checkout_create_failed", "uid", input.User.UID, "error", err)
		return CreateCheckoutResult{}, err
	}
	slog.Info("payment_event", "event", "checkout_created", "uid", input.User.UID, "session_id", sess.ID,
		"state", entitlement.StateCheckoutInitiated)
	return CreateCheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}
