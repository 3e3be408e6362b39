package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/calendar"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Deadlines are the due instants computed for a ticket. SlaDueAt always equals
// ResolutionDueAt.
type Deadlines struct {
	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
	SlaDueAt           *time.Time
}

// Projector turns an anchor instant into due instants for a policy.
type Projector struct {
	horizonDays int
}

// NewProjector builds a projector; a non-positive horizon uses the calendar default.
func NewProjector(horizonDays int) *Projector {
	if horizonDays <= 0 {
		horizonDays = calendar.DefaultHorizonDays
	}
	return &Projector{horizonDays: horizonDays}
}

// Project computes both deadlines for a ticket from the same anchor. A nil
// policy yields empty deadlines.
func (p *Projector) Project(anchor time.Time, policy *domain.SlaPolicy, channel domain.TicketChannel, priority domain.TicketPriority) (Deadlines, error) {
	if policy == nil {
		return Deadlines{}, nil
	}
	budget := ResolveTarget(policy, channel, priority)

	var schedule *calendar.Schedule
	if budget.UseBusinessHours {
		var err error
		if schedule, err = p.Schedule(policy); err != nil {
			return Deadlines{}, err
		}
	}

	firstResponse, err := p.advance(anchor, schedule, budget.FirstResponseMinutes)
	if err != nil {
		return Deadlines{}, fmt.Errorf("first response deadline: %w", err)
	}
	resolution, err := p.advance(anchor, schedule, budget.ResolutionMinutes)
	if err != nil {
		return Deadlines{}, fmt.Errorf("resolution deadline: %w", err)
	}
	return Deadlines{
		FirstResponseDueAt: firstResponse,
		ResolutionDueAt:    resolution,
		SlaDueAt:           resolution,
	}, nil
}

// ProjectOverride projects a replacement resolution budget, such as a workflow
// state's own SLA minutes, using the business-hours setting the ticket's
// channel and priority resolve to.
func (p *Projector) ProjectOverride(anchor time.Time, policy *domain.SlaPolicy, channel domain.TicketChannel, priority domain.TicketPriority, minutes int) (*time.Time, error) {
	if policy == nil {
		return nil, nil
	}
	budget := ResolveTarget(policy, channel, priority)
	var schedule *calendar.Schedule
	if budget.UseBusinessHours {
		var err error
		if schedule, err = p.Schedule(policy); err != nil {
			return nil, err
		}
	}
	due, err := p.advance(anchor, schedule, &minutes)
	if err != nil {
		return nil, fmt.Errorf("state resolution deadline: %w", err)
	}
	return due, nil
}

// Schedule builds the business calendar described by a policy.
func (p *Projector) Schedule(policy *domain.SlaPolicy) (*calendar.Schedule, error) {
	intervals := make([]calendar.Interval, 0, len(policy.BusinessHours))
	for _, bh := range policy.BusinessHours {
		start, err := calendar.ParseClock(bh.Start)
		if err != nil {
			return nil, fmt.Errorf("policy %s business hours: %w", policy.ID, err)
		}
		end, err := calendar.ParseClock(bh.End)
		if err != nil {
			return nil, fmt.Errorf("policy %s business hours: %w", policy.ID, err)
		}
		intervals = append(intervals, calendar.Interval{Weekday: bh.Weekday, Start: start, End: end})
	}
	holidays := make([]calendar.Date, 0, len(policy.Holidays))
	for _, h := range policy.Holidays {
		holidays = append(holidays, calendar.DateOf(h.Date))
	}
	return calendar.NewSchedule(policy.Timezone, intervals, holidays, calendar.WithHorizonDays(p.horizonDays))
}

// advance moves anchor forward by minutes; schedule nil means wall-clock time.
func (p *Projector) advance(anchor time.Time, schedule *calendar.Schedule, minutes *int) (*time.Time, error) {
	if minutes == nil || *minutes <= 0 {
		return nil, nil
	}
	if schedule == nil {
		due := anchor.Add(time.Duration(*minutes) * time.Minute).UTC()
		return &due, nil
	}
	due, err := schedule.ProjectForward(anchor, *minutes)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
