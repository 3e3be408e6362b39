package service_test

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

var _ = Describe("SLAService", func() {
	var (
		ctx       context.Context
		now       time.Time
		policies  *fakePolicies
		tickets   *service.TicketService
		svc       *service.SLAService
		principal domain.Principal
		clock     service.Clock
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)
		clock = service.ClockFunc(func() time.Time { return now })
		principal = domain.Principal{StaffID: "staff-1", TenantID: "t1", Role: domain.StaffRoleAdmin}

		foreign := newYorkPolicy()
		foreign.ID = "pol-foreign"
		foreign.TenantID = "t2"
		policies = &fakePolicies{policies: []*domain.SlaPolicy{newYorkPolicy(), foreign}}
		projector := sla.NewProjector(0)

		tickets = service.NewTicketService(service.TicketDependencies{
			TicketRepo:  newFakeTickets(),
			HistoryRepo: &fakeHistory{},
			Coordinator: lifecycle.NewCoordinator(lifecycle.Dependencies{
				Workflows: &fakeWorkflows{workflows: map[string]*domain.TicketWorkflow{"wf-support": supportWorkflow()}},
				Policies:  policies,
				Projector: projector,
			}),
			Locker: newFakeLocker(),
			Clock:  clock,
		})
		svc = service.NewSLAService(tickets, policies, projector, clock)
	})

	Describe("Status", func() {
		var ticketID string

		BeforeEach(func() {
			ticket, err := tickets.CreateTicket(ctx, principal, service.TicketCreateInput{
				Subject: "VPN down",
				Channel: domain.TicketChannelPortal,
			})
			Expect(err).NotTo(HaveOccurred())
			ticketID = ticket.ID
		})

		It("counts remaining business time only", func() {
			now = time.Date(2025, time.July, 8, 13, 0, 0, 0, time.UTC)
			status, err := svc.Status(ctx, principal, ticketID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.BusinessHours).To(BeTrue())
			Expect(status.FirstResponseBreached).To(BeFalse())
			Expect(status.ResolutionBreached).To(BeFalse())
			Expect(*status.ResolutionRemaining).To(Equal(7 * time.Hour))
		})

		It("flags breached deadlines", func() {
			now = time.Date(2025, time.July, 9, 12, 0, 0, 0, time.UTC)
			status, err := svc.Status(ctx, principal, ticketID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.FirstResponseBreached).To(BeTrue())
			Expect(status.ResolutionBreached).To(BeTrue())
			Expect(*status.ResolutionRemaining).To(BeZero())
		})

		It("reports tickets without a policy", func() {
			other := principal
			other.TenantID = "t3"
			ticket, err := tickets.CreateTicket(ctx, other, service.TicketCreateInput{Subject: "bare", Channel: domain.TicketChannelEmail})
			Expect(err).NotTo(HaveOccurred())

			status, err := svc.Status(ctx, other, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.PolicyID).To(BeNil())
			Expect(status.ResolutionRemaining).To(BeNil())
		})
	})

	Describe("PreviewDeadlines", func() {
		It("projects from the given anchor with the tenant default policy", func() {
			anchor := time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)
			preview, err := svc.PreviewDeadlines(ctx, principal, service.PreviewInput{
				Channel:  domain.TicketChannelEmail,
				Priority: domain.TicketPriorityLow,
				Anchor:   &anchor,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(preview.PolicyID).To(Equal("pol-ny"))
			Expect(preview.Budget.UseBusinessHours).To(BeTrue())
			Expect(*preview.Deadlines.FirstResponseDueAt).To(Equal(time.Date(2025, time.July, 8, 14, 0, 0, 0, time.UTC)))
			Expect(*preview.Deadlines.ResolutionDueAt).To(Equal(time.Date(2025, time.July, 8, 20, 0, 0, 0, time.UTC)))
		})

		It("hides policies of other tenants", func() {
			_, err := svc.PreviewDeadlines(ctx, principal, service.PreviewInput{
				PolicyID: strPtr("pol-foreign"),
				Channel:  domain.TicketChannelEmail,
				Priority: domain.TicketPriorityLow,
			})
			Expect(httpStatus(err)).To(Equal(http.StatusNotFound))
		})

		It("reports calendars without business hours as configuration errors", func() {
			policies.policies[0].BusinessHours = nil
			_, err := svc.PreviewDeadlines(ctx, principal, service.PreviewInput{
				Channel:  domain.TicketChannelEmail,
				Priority: domain.TicketPriorityLow,
			})
			Expect(errorCode(err)).To(Equal("NO_BUSINESS_HOURS"))
			Expect(httpStatus(err)).To(Equal(http.StatusConflict))
		})

		It("validates the priority", func() {
			_, err := svc.PreviewDeadlines(ctx, principal, service.PreviewInput{Channel: domain.TicketChannelEmail, Priority: "P0"})
			Expect(errorCode(err)).To(Equal("VALIDATION_FAILED"))
		})
	})
})
