package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"

	"voidsyn/internal/adapters/retry"
)

// ResendSender sends email via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	policy retry.Policy
}

// NewResendSender creates a sender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string, policy retry.Policy) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		policy: policy,
	}
}

// Send delivers a single message.
// POST: returns the Resend message id once the message is accepted
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		ReplyTo: req.ReplyTo,
	}

	var sent *resend.SendEmailResponse
	err := s.policy.Do(ctx, "resend.send", func(ctx context.Context) error {
		var err error
		sent, err = s.client.Emails.SendWithContext(ctx, params)
		return err
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
