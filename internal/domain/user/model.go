package user

import "time"

// ClaimPro is the custom claim that mirrors a completed Pro purchase.
const ClaimPro = "pro"

// User is the identity behind a verified session cookie.
type User struct {
	UID       string
	Email     string
	Claims    map[string]any
	ExpiresAt time.Time
}

// HasProClaim reports whether the identity provider's custom claims carry
// pro: true. Claims may arrive flattened at the top level or nested under
// "customClaims" depending on how they were minted.
func (u *User) HasProClaim() bool {
	if u == nil {
		return false
	}
	if v, ok := u.Claims[ClaimPro].(bool); ok && v {
		return true
	}
	if nested, ok := u.Claims["customClaims"].(map[string]any); ok {
		if v, ok := nested[ClaimPro].(bool); ok && v {
			return true
		}
	}
	return false
}
