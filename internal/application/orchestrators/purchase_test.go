package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voidsyn/internal/adapters/email"
	"voidsyn/internal/adapters/payment"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/entitlement"
	"voidsyn/internal/domain/user"
)

// --- Mocks ---

type mockPayments struct {
	created  []payment.CheckoutRequest
	sessions map[string]payment.CheckoutSession
	event    payment.WebhookEvent
	parseErr error
	err      error
}

func (m *mockPayments) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	if m.err != nil {
		return payment.CheckoutSession{}, m.err
	}
	m.created = append(m.created, req)
	return payment.CheckoutSession{ID: "cs_new", URL: "https://checkout.example/cs_new"}, nil
}

func (m *mockPayments) GetCheckoutSession(_ context.Context, id string) (payment.CheckoutSession, error) {
	if m.err != nil {
		return payment.CheckoutSession{}, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return payment.CheckoutSession{}, errors.New("no such session")
	}
	return s, nil
}

func (m *mockPayments) ParseWebhook(_ []byte, _ string) (payment.WebhookEvent, error) {
	return m.event, m.parseErr
}

type mockRegistry struct {
	mu    sync.Mutex
	users map[string]string
	err   error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{users: map[string]string{}}
}

func (m *mockRegistry) Register(_ context.Context, uid, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.users[uid]; ok {
		return false, nil
	}
	m.users[uid] = source
	return true, nil
}

type mockClaims struct {
	set map[string]map[string]any
	err error
}

func (m *mockClaims) SetCustomClaims(_ context.Context, uid string, claims map[string]any) error {
	if m.err != nil {
		return m.err
	}
	if m.set == nil {
		m.set = map[string]map[string]any{}
	}
	m.set[uid] = claims
	return nil
}

type mockSender struct {
	sent []email.SendRequest
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "m1"}, nil
}

type mockAudit struct {
	events []audit.Event
	err    error
}

func (m *mockAudit) Save(_ context.Context, ev audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockAudit) actions() []audit.Action {
	out := make([]audit.Action, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

var buyer = &user.User{UID: "u1", Email: "u1@example.com"}

// --- CreateCheckout ---

func TestCreateCheckout_BuildsRequest(t *testing.T) {
	pay := &mockPayments{}
	res, err := ExecuteCreateCheckout(context.Background(),
		CreateCheckoutInput{User: buyer, BaseURL: "https://learn.example.com/"},
		CreateCheckoutDeps{Payments: pay, Offer: entitlement.DefaultOffer()})
	require.NoError(t, err)
	assert.Equal(t, "cs_new", res.SessionID)

	require.Len(t, pay.created, 1)
	req := pay.created[0]
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "u1@example.com", req.Email)
	assert.Equal(t, int64(999), req.AmountMinor)
	assert.Equal(t, "gbp", req.Currency)
	assert.Equal(t, "https://learn.example.com/payment/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://learn.example.com/pricing", req.CancelURL)
	assert.NotEmpty(t, req.IdempotencyKey)
}

func TestCreateCheckout_Errors(t *testing.T) {
	_, err := ExecuteCreateCheckout(context.Background(), CreateCheckoutInput{}, CreateCheckoutDeps{Payments: &mockPayments{}})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = ExecuteCreateCheckout(context.Background(), CreateCheckoutInput{User: buyer}, CreateCheckoutDeps{})
	assert.ErrorIs(t, err, ErrPaymentsUnavailable)

	boom := errors.New("card_declined")
	_, err = ExecuteCreateCheckout(context.Background(), CreateCheckoutInput{User: buyer}, CreateCheckoutDeps{Payments: &mockPayments{err: boom}})
	assert.ErrorIs(t, err, boom)
}

// --- ConfirmPayment ---

func confirmDeps(sessions map[string]payment.CheckoutSession) (ConfirmPaymentDeps, *mockRegistry, *mockClaims, *mockSender) {
	reg := newMockRegistry()
	claims := &mockClaims{}
	sender := &mockSender{}
	return ConfirmPaymentDeps{
		Payments: &mockPayments{sessions: sessions},
		Registry: reg,
		Claims:   claims,
		Audit:    &mockAudit{},
		Receipt:  ReceiptDeps{Sender: sender, Offer: entitlement.DefaultOffer()},
	}, reg, claims, sender
}

func TestConfirmPayment_PaidRegistersAndMirrors(t *testing.T) {
	deps, reg, claims, sender := confirmDeps(map[string]payment.CheckoutSession{
		"cs_1": {ID: "cs_1", PaymentStatus: "paid", UserID: "u1"},
	})
	_, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{SessionID: "cs_1", User: buyer}, deps)
	require.NoError(t, err)
	assert.Contains(t, reg.users, "u1")
	assert.Equal(t, true, claims.set["u1"]["pro"])
	require.Len(t, sender.sent, 1)

	// A reload of the success page does not resend the receipt.
	_, err = ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{SessionID: "cs_1", User: buyer}, deps)
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1)

	ledger := deps.Audit.(*mockAudit)
	assert.Equal(t, []audit.Action{audit.ActionProGranted, audit.ActionProConfirmed}, ledger.actions())
	assert.Equal(t, "cs_1", ledger.events[0].Reference)
	assert.Equal(t, "payment_success", ledger.events[0].Source)
}

func TestConfirmPayment_ClaimFailureIsSwallowed(t *testing.T) {
	deps, reg, _, _ := confirmDeps(map[string]payment.CheckoutSession{
		"cs_1": {ID: "cs_1", PaymentStatus: "paid"},
	})
	deps.Claims = &mockClaims{err: errors.New("firebase down")}
	_, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{SessionID: "cs_1", User: buyer}, deps)
	require.NoError(t, err)
	assert.Contains(t, reg.users, "u1")

	ledger := deps.Audit.(*mockAudit)
	require.Equal(t, []audit.Action{audit.ActionProGranted, audit.ActionClaimsFailed}, ledger.actions())
	assert.Equal(t, audit.SeverityWarning, ledger.events[1].Severity)
	assert.Equal(t, "firebase down", ledger.events[1].Description)
}

func TestConfirmPayment_AuditFailureIsSwallowed(t *testing.T) {
	deps, reg, _, _ := confirmDeps(map[string]payment.CheckoutSession{
		"cs_1": {ID: "cs_1", PaymentStatus: "paid"},
	})
	deps.Audit = &mockAudit{err: errors.New("disk full")}
	_, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{SessionID: "cs_1", User: buyer}, deps)
	require.NoError(t, err)
	assert.Contains(t, reg.users, "u1")
}

func TestConfirmPayment_Rejections(t *testing.T) {
	deps, reg, _, _ := confirmDeps(map[string]payment.CheckoutSession{
		"cs_unpaid": {ID: "cs_unpaid", PaymentStatus: "unpaid", UserID: "u1"},
		"cs_other":  {ID: "cs_other", PaymentStatus: "paid", UserID: "someone-else"},
	})
	tests := []struct {
		name string
		id   string
		want error
	}{
		{"missing id", "  ", ErrMissingSessionID},
		{"unpaid", "cs_unpaid", ErrPaymentNotPaid},
		{"other user", "cs_other", ErrSessionMismatch},
		{"lookup failure", "cs_missing", ErrSessionLookup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{SessionID: tt.id, User: buyer}, deps)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, reg.users)
	assert.Empty(t, deps.Audit.(*mockAudit).events)
}

// --- HandleWebhook ---

func completed(uid string) payment.WebhookEvent {
	return payment.WebhookEvent{
		ID:      "evt_1",
		Type:    payment.EventCheckoutCompleted,
		Session: &payment.CheckoutSession{ID: "cs_1", PaymentStatus: "paid", UserID: uid, Email: "a@example.com"},
	}
}

func TestHandleWebhook_GrantsPro(t *testing.T) {
	reg := newMockRegistry()
	claims := &mockClaims{}
	sender := &mockSender{}
	ledger := &mockAudit{}
	err := ExecuteHandleWebhook(context.Background(), HandleWebhookInput{Payload: []byte("{}"), Signature: "sig"},
		HandleWebhookDeps{Payments: &mockPayments{event: completed("abc123")}, Registry: reg, Claims: claims,
			Audit: ledger, Receipt: ReceiptDeps{Sender: sender}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pro": true}, claims.set["abc123"])
	assert.Contains(t, reg.users, "abc123")
	assert.Len(t, sender.sent, 1)

	require.Len(t, ledger.events, 1)
	assert.Equal(t, audit.ActionProGranted, ledger.events[0].Action)
	assert.Equal(t, "abc123", ledger.events[0].SubjectID)
	assert.Equal(t, "webhook", ledger.events[0].Source)
	assert.Equal(t, "cs_1", ledger.events[0].Reference)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	claims := &mockClaims{}
	for _, ev := range []payment.WebhookEvent{
		{Type: "customer.created"},
		completed(""),
		{Type: payment.EventCheckoutCompleted},
	} {
		err := ExecuteHandleWebhook(context.Background(), HandleWebhookInput{},
			HandleWebhookDeps{Payments: &mockPayments{event: ev}, Claims: claims})
		require.NoError(t, err)
	}
	assert.Empty(t, claims.set)
}

func TestHandleWebhook_PropagatesVerificationErrors(t *testing.T) {
	err := ExecuteHandleWebhook(context.Background(), HandleWebhookInput{},
		HandleWebhookDeps{Payments: &mockPayments{parseErr: payment.ErrInvalidSignature}})
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestHandleWebhook_ClaimFailureAsksForRedelivery(t *testing.T) {
	ledger := &mockAudit{}
	err := ExecuteHandleWebhook(context.Background(), HandleWebhookInput{},
		HandleWebhookDeps{Payments: &mockPayments{event: completed("abc123")}, Registry: newMockRegistry(),
			Claims: &mockClaims{err: errors.New("unavailable")}, Audit: ledger})
	assert.ErrorIs(t, err, ErrClaimsUpdate)
	assert.Equal(t, []audit.Action{audit.ActionProGranted, audit.ActionClaimsFailed}, ledger.actions())
}

// --- RegisterPro ---

func TestRegisterPro(t *testing.T) {
	reg := newMockRegistry()
	claims := &mockClaims{}
	ledger := &mockAudit{}
	require.NoError(t, ExecuteRegisterPro(context.Background(), RegisterProInput{UserID: "u9"},
		RegisterProDeps{Registry: reg, Claims: claims, Audit: ledger}))
	assert.Equal(t, "admin", reg.users["u9"])
	assert.Equal(t, true, claims.set["u9"]["pro"])
	require.Len(t, ledger.events, 1)
	assert.Equal(t, audit.CategoryAdmin, ledger.events[0].Category)

	assert.Error(t, ExecuteRegisterPro(context.Background(), RegisterProInput{UserID: "../x"},
		RegisterProDeps{Registry: reg}))
}
