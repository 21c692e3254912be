package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voidsyn/internal/adapters/storage/prouser"
	"voidsyn/internal/domain/audit"
	"voidsyn/internal/domain/progress"
)

// RegisterProInput names the user to upgrade by hand.
type RegisterProInput struct {
	UserID string
}

// RegisterProDeps holds dependencies for RegisterPro.
type RegisterProDeps struct {
	Registry ProRegistry
	Claims   ClaimsSetter
	Audit    AuditRecorder
}

// ExecuteRegisterPro grants Pro access without a payment, for support cases.
// PRE: caller is an authenticated administrator
// POST: the user is registered locally; the claim mirror is best effort
func ExecuteRegisterPro(ctx context.Context, input RegisterProInput, deps RegisterProDeps) error {
	uid := strings.TrimSpace(input.UserID)
	if err := progress.ValidateUserID(uid); err != nil {
		return err
	}
	added, err := deps.Registry.Register(ctx, uid, prouser.SourceAdmin)
	if err != nil {
		return fmt.Errorf("register pro user: %w", err)
	}
	recordAudit(ctx, deps.Audit, grantEvent(audit.CategoryAdmin, uid, prouser.SourceAdmin, "", added))
	mirrorClaims(ctx, deps.Claims, deps.Audit, uid, prouser.SourceAdmin)
	slog.Info("admin_event", "event", "pro_registered", "uid", uid, "new", added)
	return nil
}
