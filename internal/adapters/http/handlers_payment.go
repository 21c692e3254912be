package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"voidsyn/internal/adapters/http/middleware"
	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/application/orchestrators"
)

func (s *server) receiptDeps() orchestrators.ReceiptDeps {
	return orchestrators.ReceiptDeps{Sender: s.Email, Offer: s.Offer, BaseURL: s.BaseURL}
}

// baseURL prefers the configured public URL and falls back to the request host.
func (s *server) baseURL(r *http.Request) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	scheme := "http"
	if r.TLS != nil || s.Cookie.Secure {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// handleCreateCheckout opens a hosted checkout session for the Pro offer.
func (s *server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	res, err := orchestrators.ExecuteCreateCheckout(r.Context(), orchestrators.CreateCheckoutInput{
		User:    u,
		BaseURL: s.baseURL(r),
	}, orchestrators.CreateCheckoutDeps{
		Payments: s.Payments,
		Offer:    s.Offer,
	})
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": res.SessionID, "url": res.URL})
}

// handlePaymentSuccess confirms a paid session on the success redirect.
// Anything other than a confirmed payment sends the user back to /pricing.
func (s *server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUserFromContext(r.Context())
	sess, err := orchestrators.ExecuteConfirmPayment(r.Context(), orchestrators.ConfirmPaymentInput{
		SessionID: r.URL.Query().Get("session_id"),
		User:      u,
	}, orchestrators.ConfirmPaymentDeps{
		Payments: s.Payments,
		Registry: s.ProUsers,
		Claims:   s.Identity,
		Audit:    s.Audit,
		Receipt:  s.receiptDeps(),
	})
	if err != nil {
		slog.Info("payment_event", "event", "payment_success_rejected", "uid", u.UID, "error", err)
		http.Redirect(w, r, "/pricing", http.StatusFound)
		return
	}
	s.renderTemplate(w, r, "payment_success.html", map[string]any{
		"Session": sess,
		"Offer":   s.Offer,
	})
}

// handleStripeWebhook applies a signed processor event.
func (s *server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		plainText(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	err = orchestrators.ExecuteHandleWebhook(r.Context(), orchestrators.HandleWebhookInput{
		Payload:   payload,
		Signature: r.Header.Get("Stripe-Signature"),
	}, orchestrators.HandleWebhookDeps{
		Payments: s.Payments,
		Registry: s.ProUsers,
		Claims:   s.Identity,
		Audit:    s.Audit,
		Receipt:  s.receiptDeps(),
	})
	switch {
	case err == nil:
		plainText(w, http.StatusOK, "Success")
	case errors.Is(err, payment.ErrInvalidSignature):
		plainText(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, payment.ErrInvalidPayload):
		plainText(w, http.StatusBadRequest, "Invalid payload")
	case errors.Is(err, orchestrators.ErrPaymentsUnavailable):
		plainText(w, http.StatusServiceUnavailable, "Payments not configured")
	default:
		internalError(w, err)
	}
}
