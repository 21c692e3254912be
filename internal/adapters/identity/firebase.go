package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"voidsyn/internal/adapters/retry"
	"voidsyn/internal/domain/user"
)

// FirebaseProvider implements Provider with the Firebase Admin SDK.
type FirebaseProvider struct {
	client *auth.Client
	policy retry.Policy
}

var _ Provider = (*FirebaseProvider)(nil)

// NewFirebaseProvider initialises the Admin SDK. credentialsFile may be
// empty, in which case application default credentials are used.
func NewFirebaseProvider(ctx context.Context, projectID, credentialsFile string, policy retry.Policy) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	policy.Retryable = retryable
	return &FirebaseProvider{client: client, policy: policy}, nil
}

// CreateSessionCookie mints a session cookie from a client ID token.
func (p *FirebaseProvider) CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	var cookie string
	err := p.policy.Do(ctx, "firebase.session_cookie", func(ctx context.Context) error {
		var err error
		cookie, err = p.client.SessionCookie(ctx, idToken, ttl)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create session cookie: %w", err)
	}
	return cookie, nil
}

// VerifySessionCookie checks the cookie signature, expiry and revocation.
// POST: on success the returned user carries the token's claims
func (p *FirebaseProvider) VerifySessionCookie(ctx context.Context, cookie string) (*user.User, error) {
	if cookie == "" {
		return nil, ErrInvalidSession
	}
	var tok *auth.Token
	err := p.policy.Do(ctx, "firebase.verify_session", func(ctx context.Context) error {
		var err error
		tok, err = p.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
		return err
	})
	if err != nil {
		if retry.Transient(err) {
			slog.Warn("auth_event", "event", "verify_unavailable", "error", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	email, _ := tok.Claims["email"].(string)
	return &user.User{
		UID:       tok.UID,
		Email:     email,
		Claims:    tok.Claims,
		ExpiresAt: time.Unix(tok.Expires, 0),
	}, nil
}

// SetCustomClaims overwrites the custom claims on uid.
func (p *FirebaseProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	err := p.policy.Do(ctx, "firebase.set_claims", func(ctx context.Context) error {
		return p.client.SetCustomUserClaims(ctx, uid, claims)
	})
	if err != nil {
		return fmt.Errorf("set custom claims for %s: %w", uid, err)
	}
	return nil
}

// retryable treats definitive answers about the user or session as final.
func retryable(err error) bool {
	switch {
	case auth.IsSessionCookieRevoked(err),
		auth.IsSessionCookieInvalid(err),
		auth.IsUserDisabled(err),
		auth.IsUserNotFound(err):
		return false
	}
	return retry.Transient(err)
}
