package prouser

import "context"

// Store is the local registry of users who have paid for Pro access.
type Store interface {
	IsRegistered(ctx context.Context, userID string) (bool, error)
	// Register adds userID and reports whether it was newly added.
	// Registering an existing user is a no-op.
	Register(ctx context.Context, userID, source string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// Registration sources recorded alongside a pro user.
const (
	SourceWebhook = "webhook"
	SourceSuccess = "payment_success"
	SourceAdmin   = "admin"
)
