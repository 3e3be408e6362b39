package hooks

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// RegisterBuiltins binds the hooks every deployment ships with.
func RegisterBuiltins(registry *Registry, logger *zap.Logger) {
	registry.Register("log_transition", func(ctx context.Context, inv Invocation) error {
		logger.Info("workflow transition",
			zap.String("tenant_id", inv.TenantID),
			zap.String("ticket_id", inv.TicketID),
			zap.String("from", inv.FromState),
			zap.String("to", inv.ToState))
		return nil
	})
	registry.Register("actor_present", func(ctx context.Context, inv Invocation) error {
		if inv.ActorID == nil || strings.TrimSpace(*inv.ActorID) == "" {
			return errors.New("transition requires an authenticated actor")
		}
		return nil
	})
}
