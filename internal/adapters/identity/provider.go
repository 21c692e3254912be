// Package identity talks to the hosted identity provider that owns user
// accounts, session cookies and custom claims.
package identity

import (
	"context"
	"errors"
	"time"

	"voidsyn/internal/domain/user"
)

// ErrInvalidSession means the cookie is missing, malformed, expired or revoked.
var ErrInvalidSession = errors.New("invalid session")

// Provider is the identity provider contract used by the HTTP layer and
// the payment orchestrators.
type Provider interface {
	// CreateSessionCookie exchanges a client ID token for a session cookie
	// valid for ttl.
	CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	// VerifySessionCookie validates cookie, including revocation.
	VerifySessionCookie(ctx context.Context, cookie string) (*user.User, error)
	// SetCustomClaims replaces the custom claims on uid.
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
}
