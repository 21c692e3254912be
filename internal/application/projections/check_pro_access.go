package projections

import (
	"context"
	"fmt"

	"voidsyn/internal/domain/entitlement"
	"voidsyn/internal/domain/user"
)

// ProRegistry answers whether a user is registered as Pro locally.
type ProRegistry interface {
	IsRegistered(ctx context.Context, userID string) (bool, error)
}

// QueryProAccess combines the local registration with the session claims.
// POST: false for a nil user without consulting the registry
func QueryProAccess(ctx context.Context, u *user.User, registry ProRegistry) (bool, error) {
	if u == nil || u.UID == "" {
		return false, nil
	}
	if u.HasProClaim() || registry == nil {
		return entitlement.HasProAccess(u, false), nil
	}
	registered, err := registry.IsRegistered(ctx, u.UID)
	if err != nil {
		return false, fmt.Errorf("check pro registration: %w", err)
	}
	return entitlement.HasProAccess(u, registered), nil
}
