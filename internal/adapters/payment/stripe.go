package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"voidsyn/internal/adapters/retry"
)

// StripeProvider implements Provider with Stripe Checkout.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	policy        retry.Policy
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a provider for secretKey. webhookSecret is the
// endpoint signing secret ("whsec_...").
func NewStripeProvider(secretKey, webhookSecret string, policy retry.Policy) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	policy.Retryable = retryable
	return &StripeProvider{api: api, webhookSecret: webhookSecret, policy: policy}
}

// CreateCheckoutSession opens a card-only payment-mode session for one unit.
// PRE: req.IdempotencyKey is unique per purchase attempt
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
				UnitAmount: stripe.Int64(req.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(req.Description)
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("user_email", req.Email)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	var sess *stripe.CheckoutSession
	err := p.policy.Do(ctx, "stripe.checkout_create", func(ctx context.Context) error {
		params.Context = ctx
		var err error
		sess, err = p.api.CheckoutSessions.New(params)
		return err
	})
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(sess), nil
}

// GetCheckoutSession retrieves a session by id.
func (p *StripeProvider) GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	var sess *stripe.CheckoutSession
	err := p.policy.Do(ctx, "stripe.checkout_get", func(ctx context.Context) error {
		params := &stripe.CheckoutSessionParams{}
		params.Context = ctx
		var err error
		sess, err = p.api.CheckoutSessions.Get(id, params)
		return err
	})
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return fromStripe(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Type == stripe.EventTypeCheckoutSessionCompleted {
		if event.Data == nil {
			return WebhookEvent{}, ErrInvalidPayload
		}
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		s := fromStripe(&sess)
		out.Session = &s
	}
	return out, nil
}

func fromStripe(s *stripe.CheckoutSession) CheckoutSession {
	if s == nil {
		return CheckoutSession{}
	}
	out := CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		UserID:        s.Metadata["user_id"],
		Email:         s.Metadata["user_email"],
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if out.Email == "" {
		out.Email = s.CustomerEmail
	}
	if out.Email == "" && s.CustomerDetails != nil {
		out.Email = s.CustomerDetails.Email
	}
	return out
}

// retryable retries network failures and server-side or rate-limit errors.
func retryable(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode >= 500
	}
	return retry.Transient(err)
}
