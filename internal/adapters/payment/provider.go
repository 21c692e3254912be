// Package payment wraps the hosted payment processor used to sell Pro access.
package payment

import (
	"context"
	"errors"
)

// Webhook verification errors.
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// EventCheckoutCompleted is the only webhook event acted upon.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutRequest describes a one-off Pro purchase.
type CheckoutRequest struct {
	UserID         string
	Email          string
	ProductName    string
	Description    string
	AmountMinor    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// CheckoutSession is the subset of a processor checkout session we read.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	UserID        string
	Email         string
	AmountTotal   int64
	Currency      string
}

// WebhookEvent is a verified webhook delivery. Session is set for
// checkout session events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

// Provider is the payment processor contract.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
	// ParseWebhook verifies signature over payload and decodes the event.
	// It returns ErrInvalidSignature or ErrInvalidPayload on failure.
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}
