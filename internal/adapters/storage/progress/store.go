package progress

import "context"

// Store persists each user's completed lesson slugs.
type Store interface {
	// GetCompleted returns the user's completed slugs, sorted. A user with
	// no record has an empty set.
	GetCompleted(ctx context.Context, userID string) ([]string, error)
	// SetCompleted adds or removes slug and returns the resulting set.
	// The read-modify-write is atomic per user.
	SetCompleted(ctx context.Context, userID, slug string, completed bool) ([]string, error)
}
