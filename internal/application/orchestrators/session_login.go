package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Session login errors
var (
	ErrMissingIDToken = errors.New("missing idToken")
	ErrSessionCookie  = errors.New("failed to create session cookie")
)

// SessionIssuer exchanges a client ID token for a server session cookie.
type SessionIssuer interface {
	CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error)
}

// SessionLoginInput carries the ID token posted by the browser.
type SessionLoginInput struct {
	IDToken string
	TTL     time.Duration
}

// SessionLoginDeps holds dependencies for SessionLogin.
type SessionLoginDeps struct {
	Identity SessionIssuer
}

// SessionLoginResult carries the cookie value to set.
type SessionLoginResult struct {
	Cookie string
	MaxAge time.Duration
}

// ExecuteSessionLogin mints a session cookie for a signed-in client.
// PRE: TTL > 0
// POST: on success Cookie is non-empty and valid for TTL
func ExecuteSessionLogin(ctx context.Context, input SessionLoginInput, deps SessionLoginDeps) (SessionLoginResult, error) {
	token := strings.TrimSpace(input.IDToken)
	if token == "" {
		return SessionLoginResult{}, ErrMissingIDToken
	}
	cookie, err := deps.Identity.CreateSessionCookie(ctx, token, input.TTL)
	if err != nil {
		slog.Info("auth_event", "event", "session_login_failed", "error", err)
		return SessionLoginResult{}, ErrSessionCookie
	}
	slog.Info("auth_event", "event", "session_login")
	return SessionLoginResult{Cookie: cookie, MaxAge: input.TTL}, nil
}
