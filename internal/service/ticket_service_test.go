package service_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/hooks"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

var _ = Describe("TicketService", func() {
	var (
		ctx        context.Context
		now        time.Time
		tickets    *fakeTickets
		history    *fakeHistory
		locker     *fakeLocker
		metrics    *observability.Metrics
		published  []events.Event
		entryCalls []hooks.Invocation
		svc        *service.TicketService
		principal  domain.Principal
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)
		tickets = newFakeTickets()
		history = &fakeHistory{}
		locker = newFakeLocker()
		metrics = observability.NewMetrics()
		published = nil
		entryCalls = nil
		principal = domain.Principal{StaffID: "staff-1", TenantID: "t1", Role: domain.StaffRoleAgent}

		coordinator := lifecycle.NewCoordinator(lifecycle.Dependencies{
			Workflows: &fakeWorkflows{workflows: map[string]*domain.TicketWorkflow{"wf-support": supportWorkflow()}},
			Policies:  &fakePolicies{policies: []*domain.SlaPolicy{newYorkPolicy()}},
			Projector: sla.NewProjector(0),
		})

		registry := hooks.NewRegistry()
		registry.Register("record_entry", func(ctx context.Context, inv hooks.Invocation) error {
			entryCalls = append(entryCalls, inv)
			return nil
		})
		registry.Register("deny", func(ctx context.Context, inv hooks.Invocation) error {
			return errors.New("escalation disabled")
		})
		hookDispatcher := hooks.NewDispatcher(registry, zap.NewNop())

		bus := events.NewInMemoryDispatcher()
		for _, t := range []events.EventType{events.EventTicketCreated, events.EventTicketStateChanged, events.EventTicketDeadlinesRecomputed} {
			bus.Subscribe(t, func(ctx context.Context, e events.Event) error {
				published = append(published, e)
				return nil
			})
		}
		hookDispatcher.RegisterHandlers(bus)

		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:  tickets,
			HistoryRepo: history,
			Coordinator: coordinator,
			Locker:      locker,
			Guards:      hookDispatcher,
			Dispatcher:  bus,
			Metrics:     metrics,
			Logger:      zap.NewNop(),
			Clock:       service.ClockFunc(func() time.Time { return now }),
			KeyPrefix:   "HD",
		})
	})

	create := func() *domain.Ticket {
		ticket, err := svc.CreateTicket(ctx, principal, service.TicketCreateInput{
			Subject:  "Printer on fire",
			Channel:  domain.TicketChannelEmail,
			Priority: domain.TicketPriorityHigh,
		})
		Expect(err).NotTo(HaveOccurred())
		return ticket
	}

	Describe("CreateTicket", func() {
		It("assigns the initial state and business-hours deadlines", func() {
			ticket := create()

			Expect(ticket.ExternalKey).To(HavePrefix("HD-"))
			Expect(ticket.CurrentState()).To(Equal("new"))
			Expect(*ticket.TicketWorkflowID).To(Equal("wf-support"))
			Expect(*ticket.SlaPolicyID).To(Equal("pol-ny"))
			Expect(*ticket.FirstResponseDueAt).To(Equal(time.Date(2025, time.July, 8, 14, 0, 0, 0, time.UTC)))
			Expect(*ticket.ResolutionDueAt).To(Equal(time.Date(2025, time.July, 8, 20, 0, 0, 0, time.UTC)))
			Expect(*ticket.SlaDueAt).To(Equal(*ticket.ResolutionDueAt))

			stored := tickets.stored(ticket.ID)
			Expect(stored.CurrentState()).To(Equal("new"))
			Expect(history.changeTypes()).To(Equal([]domain.TicketChangeType{domain.ChangeTypeCreated}))
			Expect(published).To(HaveLen(1))
			Expect(published[0].Type).To(Equal(events.EventTicketCreated))
			Expect(*published[0].Actor.StaffID).To(Equal("staff-1"))
		})

		It("defaults the priority", func() {
			ticket, err := svc.CreateTicket(ctx, principal, service.TicketCreateInput{
				Subject: "No priority",
				Channel: domain.TicketChannelChat,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Priority).To(Equal(domain.TicketPriorityMedium))
		})

		It("validates input", func() {
			_, err := svc.CreateTicket(ctx, principal, service.TicketCreateInput{Subject: "  ", Channel: domain.TicketChannelEmail})
			Expect(errorCode(err)).To(Equal("VALIDATION_FAILED"))

			_, err = svc.CreateTicket(ctx, principal, service.TicketCreateInput{Subject: "x", Channel: "FAX"})
			Expect(errorCode(err)).To(Equal("VALIDATION_FAILED"))
		})

		It("rejects an explicit workflow of another tenant", func() {
			other := principal
			other.TenantID = "t2"
			_, err := svc.CreateTicket(ctx, other, service.TicketCreateInput{
				Subject:    "cross tenant",
				Channel:    domain.TicketChannelEmail,
				WorkflowID: strPtr("wf-support"),
			})
			Expect(httpStatus(err)).To(Equal(http.StatusNotFound))
		})

		It("creates tickets without deadlines when the tenant has no policy", func() {
			other := principal
			other.TenantID = "t2"
			ticket, err := svc.CreateTicket(ctx, other, service.TicketCreateInput{Subject: "bare", Channel: domain.TicketChannelEmail})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.SlaPolicyID).To(BeNil())
			Expect(ticket.ResolutionDueAt).To(BeNil())
			Expect(ticket.WorkflowState).To(BeNil())
		})
	})

	Describe("TransitionTicket", func() {
		var ticket *domain.Ticket

		BeforeEach(func() {
			ticket = create()
			published = nil
			now = time.Date(2025, time.July, 8, 15, 0, 0, 0, time.UTC)
		})

		It("rejects a transition that is not modeled", func() {
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "closed"})
			Expect(errorCode(err)).To(Equal("NO_SUCH_TRANSITION"))
			Expect(httpStatus(err)).To(Equal(http.StatusUnprocessableEntity))
			Expect(tickets.updates).To(Equal(0))
			Expect(locker.released).To(Equal(1))
		})

		It("requires a comment where the transition demands one", func() {
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "review"})
			Expect(errorCode(err)).To(Equal("COMMENT_REQUIRED"))
			stored := tickets.stored(ticket.ID)
			Expect(stored.CurrentState()).To(Equal("new"))
			Expect(metrics.Snapshot()["transitions"]).To(HaveKeyWithValue("COMMENT_REQUIRED", int64(1)))

			updated, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "review", Comment: "escalating to tier 2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.CurrentState()).To(Equal("review"))
			Expect(*updated.ResolutionDueAt).To(Equal(*ticket.ResolutionDueAt))
			Expect(published).To(HaveLen(1))
			Expect(published[0].Type).To(Equal(events.EventTicketStateChanged))
		})

		It("re-projects the resolution deadline for states with their own budget", func() {
			updated, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "pending_customer"})
			Expect(err).NotTo(HaveOccurred())

			Expect(*updated.ResolutionDueAt).To(Equal(time.Date(2025, time.July, 8, 16, 0, 0, 0, time.UTC)))
			Expect(*updated.SlaDueAt).To(Equal(*updated.ResolutionDueAt))
			Expect(*updated.FirstResponseDueAt).To(Equal(*ticket.FirstResponseDueAt))
			Expect(tickets.stored(ticket.ID).Version).To(Equal(2))

			Expect(history.changeTypes()).To(Equal([]domain.TicketChangeType{
				domain.ChangeTypeCreated,
				domain.ChangeTypeWorkflowState,
				domain.ChangeTypeDeadlines,
			}))
			Expect(published).To(HaveLen(2))
			Expect(published[1].Type).To(Equal(events.EventTicketDeadlinesRecomputed))
			payload := published[1].Payload.(events.TicketDeadlinesRecomputedPayload)
			Expect(payload.SLAMinutes).To(Equal(60))
			Expect(*payload.PreviousResolutionDueAt).To(Equal(*ticket.ResolutionDueAt))
		})

		It("runs the entry hook of the new state after persisting", func() {
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "pending_customer"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entryCalls).To(HaveLen(1))
			Expect(entryCalls[0].FromState).To(Equal("new"))
			Expect(entryCalls[0].ToState).To(Equal("pending_customer"))
			Expect(*entryCalls[0].ActorID).To(Equal("staff-1"))
		})

		It("does not persist when the guard rejects", func() {
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "escalated"})
			Expect(errorCode(err)).To(Equal("GUARD_REJECTED"))
			Expect(tickets.updates).To(Equal(0))
			Expect(published).To(BeEmpty())
		})

		It("refuses to work on a locked ticket", func() {
			release, err := locker.Acquire(ctx, ticket.ID, time.Second)
			Expect(err).NotTo(HaveOccurred())
			defer release(ctx) //nolint:errcheck

			_, err = svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "pending_customer"})
			Expect(errorCode(err)).To(Equal("TICKET_LOCKED"))
			Expect(httpStatus(err)).To(Equal(http.StatusConflict))
		})

		It("surfaces concurrent modification", func() {
			tickets.updateErr = repository.ErrVersionConflict
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{ToState: "pending_customer"})
			Expect(errorCode(err)).To(Equal("VERSION_CONFLICT"))
		})

		It("hides tickets of other tenants", func() {
			other := principal
			other.TenantID = "t2"
			_, err := svc.TransitionTicket(ctx, other, ticket.ID, service.TransitionInput{ToState: "pending_customer"})
			Expect(httpStatus(err)).To(Equal(http.StatusNotFound))
		})

		It("requires a target state", func() {
			_, err := svc.TransitionTicket(ctx, principal, ticket.ID, service.TransitionInput{})
			Expect(errorCode(err)).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("ListHistory", func() {
		It("returns entries for visible tickets", func() {
			ticket := create()
			entries, err := svc.ListHistory(ctx, principal, ticket.ID, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})
})
