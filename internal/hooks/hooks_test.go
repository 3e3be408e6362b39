package hooks_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/hooks"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		registry   *hooks.Registry
		logs       *observer.ObservedLogs
		dispatcher *hooks.Dispatcher
		bus        events.Dispatcher
		calls      []hooks.Invocation
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls = nil
		registry = hooks.NewRegistry()
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		dispatcher = hooks.NewDispatcher(registry, zap.New(core))
		bus = events.NewInMemoryDispatcher()
		dispatcher.RegisterHandlers(bus)

		registry.Register("record", func(ctx context.Context, inv hooks.Invocation) error {
			calls = append(calls, inv)
			return nil
		})
		registry.Register("deny", func(ctx context.Context, inv hooks.Invocation) error {
			return errors.New("not today")
		})
	})

	Describe("EvaluateGuard", func() {
		It("passes when no guard is configured", func() {
			Expect(dispatcher.EvaluateGuard(ctx, "", hooks.Invocation{})).To(Succeed())
		})

		It("runs the registered guard", func() {
			Expect(dispatcher.EvaluateGuard(ctx, "record", hooks.Invocation{TicketID: "tk-1"})).To(Succeed())
			Expect(calls).To(HaveLen(1))
		})

		It("reports a rejecting guard", func() {
			err := dispatcher.EvaluateGuard(ctx, "deny", hooks.Invocation{})
			Expect(err).To(MatchError(hooks.ErrGuardRejected))
			Expect(err.Error()).To(ContainSubstring("not today"))
		})

		It("fails closed for unknown guards", func() {
			Expect(dispatcher.EvaluateGuard(ctx, "missing", hooks.Invocation{})).To(MatchError(hooks.ErrUnknownHook))
		})
	})

	Describe("entry hooks", func() {
		publish := func(hook string) error {
			return bus.Publish(ctx, events.Event{
				Type:     events.EventTicketStateChanged,
				TenantID: "t1",
				TicketID: "tk-1",
				Payload: events.TicketStateChangedPayload{
					FromState: "new",
					ToState:   "review",
					EntryHook: hook,
				},
			})
		}

		It("runs the hook named by the new state", func() {
			Expect(publish("record")).To(Succeed())
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].ToState).To(Equal("review"))
			Expect(calls[0].TenantID).To(Equal("t1"))
		})

		It("skips states without an entry hook", func() {
			Expect(publish("")).To(Succeed())
			Expect(calls).To(BeEmpty())
		})

		It("warns about unregistered hooks without failing", func() {
			Expect(publish("ghost")).To(Succeed())
			Expect(logs.FilterMessage("entry hook not registered").Len()).To(Equal(1))
		})

		It("returns hook failures to the publisher", func() {
			Expect(publish("deny")).To(MatchError(ContainSubstring("not today")))
			Expect(logs.FilterMessage("entry hook failed").Len()).To(Equal(1))
		})
	})

	Describe("builtins", func() {
		It("requires an actor for actor_present", func() {
			hooks.RegisterBuiltins(registry, zap.NewNop())
			Expect(dispatcher.EvaluateGuard(ctx, "actor_present", hooks.Invocation{})).To(MatchError(hooks.ErrGuardRejected))
			staff := "staff-1"
			Expect(dispatcher.EvaluateGuard(ctx, "actor_present", hooks.Invocation{ActorID: &staff})).To(Succeed())
			Expect(registry.Names()).To(ContainElements("actor_present", "log_transition"))
		})
	})
})
