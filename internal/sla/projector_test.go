package sla_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/helpdesk-service/internal/calendar"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

func newYorkPolicy() *domain.SlaPolicy {
	return &domain.SlaPolicy{
		ID:       "pol-ny",
		TenantID: "t1",
		Timezone: "America/New_York",
		BusinessHours: []domain.BusinessHoursInterval{
			{Weekday: time.Friday, Start: "09:00", End: "17:00"},
			{Weekday: time.Monday, Start: "09:00", End: "17:00"},
			{Weekday: time.Tuesday, Start: "09:00", End: "17:00"},
		},
		Holidays: []domain.HolidayException{
			{Date: time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC), Label: strPtr("Independence Day (observed)")},
		},
		FirstResponseMinutes: intPtr(120),
		ResolutionMinutes:    intPtr(480),
		EnforceBusinessHours: true,
	}
}

var _ = Describe("Projector", func() {
	var (
		projector *sla.Projector
		policy    *domain.SlaPolicy
		created   time.Time
	)

	BeforeEach(func() {
		projector = sla.NewProjector(0)
		policy = newYorkPolicy()
		created = time.Date(2025, time.July, 4, 20, 0, 0, 0, time.UTC)
	})

	It("projects both deadlines through business hours and holidays", func() {
		deadlines, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(*deadlines.FirstResponseDueAt).To(BeTemporally("==", time.Date(2025, time.July, 8, 14, 0, 0, 0, time.UTC)))
		Expect(*deadlines.ResolutionDueAt).To(BeTemporally("==", time.Date(2025, time.July, 8, 20, 0, 0, 0, time.UTC)))
		Expect(deadlines.SlaDueAt).To(Equal(deadlines.ResolutionDueAt))
	})

	It("adds plain calendar time when business hours are not enforced", func() {
		policy.EnforceBusinessHours = false
		deadlines, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(*deadlines.FirstResponseDueAt).To(BeTemporally("==", created.Add(2*time.Hour)))
		Expect(*deadlines.ResolutionDueAt).To(BeTemporally("==", created.Add(8*time.Hour)))
	})

	It("honours the target's own business-hours flag", func() {
		policy.Targets = []domain.SlaTarget{{
			Channel:              domain.TicketChannelPhone,
			Priority:             domain.TicketPriorityUrgent,
			FirstResponseMinutes: intPtr(30),
			ResolutionMinutes:    intPtr(90),
			UseBusinessHours:     false,
		}}
		deadlines, err := projector.Project(created, policy, domain.TicketChannelPhone, domain.TicketPriorityUrgent)
		Expect(err).NotTo(HaveOccurred())
		Expect(*deadlines.FirstResponseDueAt).To(BeTemporally("==", created.Add(30*time.Minute)))
		Expect(*deadlines.ResolutionDueAt).To(BeTemporally("==", created.Add(90*time.Minute)))
	})

	It("leaves a deadline nil for a zero or missing budget", func() {
		policy.FirstResponseMinutes = intPtr(0)
		policy.ResolutionMinutes = nil
		deadlines, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(deadlines.FirstResponseDueAt).To(BeNil())
		Expect(deadlines.ResolutionDueAt).To(BeNil())
		Expect(deadlines.SlaDueAt).To(BeNil())
	})

	It("returns empty deadlines without a policy", func() {
		deadlines, err := projector.Project(created, nil, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(deadlines).To(Equal(sla.Deadlines{}))
	})

	It("reports a policy without business hours distinctly", func() {
		policy.BusinessHours = nil
		_, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).To(MatchError(calendar.ErrNoBusinessHoursDefined))
	})

	It("rejects malformed business hours", func() {
		policy.BusinessHours[0].End = "5pm"
		_, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).To(MatchError(calendar.ErrInvalidClock))
	})

	It("is deterministic for the same inputs", func() {
		first, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		second, err := projector.Project(created, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	Describe("ProjectOverride", func() {
		It("projects the override budget from the given anchor", func() {
			// Tuesday 2025-07-08 16:00 local.
			at := time.Date(2025, time.July, 8, 20, 0, 0, 0, time.UTC)
			due, err := projector.ProjectOverride(at, policy, domain.TicketChannelEmail, domain.TicketPriorityMedium, 120)
			Expect(err).NotTo(HaveOccurred())
			// One hour left on Tuesday, the second hour on Friday morning.
			Expect(*due).To(BeTemporally("==", time.Date(2025, time.July, 11, 14, 0, 0, 0, time.UTC)))
		})

		It("returns nil without a policy", func() {
			due, err := projector.ProjectOverride(created, nil, domain.TicketChannelEmail, domain.TicketPriorityMedium, 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(BeNil())
		})
	})
})
