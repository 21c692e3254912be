package entitlement

import "voidsyn/internal/domain/user"

// Purchase states for the Pro tier.
const (
	StateUnpaid            = "unpaid"
	StateCheckoutInitiated = "checkout_initiated"
	StatePaid              = "paid"
)

// PaymentStatusPaid is the processor's payment status for a settled checkout.
const PaymentStatusPaid = "paid"

// HasProAccess reports whether u may see Pro content. Either signal is
// sufficient: local registration of the UID, or a pro claim on the session.
// POST: false for a nil user regardless of registration
func HasProAccess(u *user.User, registered bool) bool {
	if u == nil || u.UID == "" {
		return false
	}
	return registered || u.HasProClaim()
}

// StateForPaymentStatus maps a checkout session's payment status to a purchase state.
func StateForPaymentStatus(status string) string {
	if status == PaymentStatusPaid {
		return StatePaid
	}
	return StateCheckoutInitiated
}

// Offer is the one-off Pro purchase presented at checkout.
type Offer struct {
	Name        string
	Description string
	AmountMinor int64
	Currency    string
}

// DefaultOffer is £9.99 for lifetime Pro access.
func DefaultOffer() Offer {
	return Offer{
		Name:        "INFRA+- Pro Access",
		Description: "Lifetime access to all Pro content",
		AmountMinor: 999,
		Currency:    "gbp",
	}
}

// ProClaims is the custom claim set written to the identity provider when
// a purchase completes.
func ProClaims() map[string]any {
	return map[string]any{user.ClaimPro: true}
}
