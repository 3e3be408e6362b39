package worker

import (
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/hooks"
)

// StartHookWorker subscribes workflow entry hooks to ticket events.
func StartHookWorker(hookDispatcher *hooks.Dispatcher, bus events.Dispatcher) {
	if hookDispatcher == nil || bus == nil {
		return
	}
	hookDispatcher.RegisterHandlers(bus)
}
