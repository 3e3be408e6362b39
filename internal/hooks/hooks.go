package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

var (
	ErrUnknownHook   = errors.New("hook not registered")
	ErrGuardRejected = errors.New("guard hook rejected transition")
)

// Invocation is what a hook sees about the transition that triggered it.
type Invocation struct {
	TenantID  string
	TicketID  string
	FromState string
	ToState   string
	Comment   string
	ActorID   *string
	Metadata  map[string]any
}

// Func is a named side effect.
type Func func(ctx context.Context, inv Invocation) error

// Registry maps hook names stored on workflow states and transitions to code.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Func)}
}

// Register binds name to fn, replacing any earlier binding.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = fn
}

// Lookup returns the hook bound to name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.hooks[name]
	return fn, ok
}

// Names lists registered hooks in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher runs guard hooks on request and entry hooks on state change events.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// EvaluateGuard runs the named guard. An empty name always passes; an unknown
// name fails closed.
func (d *Dispatcher) EvaluateGuard(ctx context.Context, name string, inv Invocation) error {
	if name == "" {
		return nil
	}
	fn, ok := d.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHook, name)
	}
	if err := fn(ctx, inv); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGuardRejected, name, err)
	}
	return nil
}

// RegisterHandlers subscribes entry hook execution to state change events.
func (d *Dispatcher) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketStateChanged, d.handleStateChanged)
}

func (d *Dispatcher) handleStateChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStateChangedPayload)
	if !ok || payload.EntryHook == "" {
		return nil
	}
	fn, ok := d.registry.Lookup(payload.EntryHook)
	if !ok {
		d.logger.Warn("entry hook not registered",
			zap.String("hook", payload.EntryHook),
			zap.String("ticket_id", event.TicketID))
		return nil
	}
	inv := Invocation{
		TenantID:  event.TenantID,
		TicketID:  event.TicketID,
		FromState: payload.FromState,
		ToState:   payload.ToState,
		Comment:   payload.Comment,
		ActorID:   event.Actor.StaffID,
		Metadata:  payload.Metadata,
	}
	if err := fn(ctx, inv); err != nil {
		d.logger.Error("entry hook failed",
			zap.String("hook", payload.EntryHook),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	d.logger.Debug("entry hook ran",
		zap.String("hook", payload.EntryHook),
		zap.String("ticket_id", event.TicketID))
	return nil
}
