package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/calendar"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SLAService reports on ticket deadlines and previews policies.
type SLAService struct {
	tickets   *TicketService
	policies  lifecycle.PolicySource
	projector *sla.Projector
	clock     Clock
}

// NewSLAService constructs the service.
func NewSLAService(tickets *TicketService, policies lifecycle.PolicySource, projector *sla.Projector, clock Clock) *SLAService {
	if clock == nil {
		clock = SystemClock()
	}
	return &SLAService{tickets: tickets, policies: policies, projector: projector, clock: clock}
}

// SLAStatus is a point-in-time view of a ticket's deadlines.
type SLAStatus struct {
	TicketID              string
	PolicyID              *string
	EvaluatedAt           time.Time
	FirstResponseDueAt    *time.Time
	ResolutionDueAt       *time.Time
	FirstResponseBreached bool
	ResolutionBreached    bool
	BusinessHours         bool
	// ResolutionRemaining counts business time when the ticket's target uses
	// business hours, wall-clock time otherwise. Zero once breached.
	ResolutionRemaining *time.Duration
}

// PreviewInput selects the policy and ticket attributes to project for.
type PreviewInput struct {
	PolicyID *string
	BrandID  *string
	Channel  domain.TicketChannel
	Priority domain.TicketPriority
	Anchor   *time.Time
}

// Preview is the result of projecting deadlines without creating a ticket.
type Preview struct {
	PolicyID  string
	Anchor    time.Time
	Budget    sla.Budget
	Deadlines sla.Deadlines
}

// Status evaluates a ticket's deadlines at the current instant.
func (s *SLAService) Status(ctx context.Context, principal domain.Principal, ticketID string) (*SLAStatus, error) {
	ticket, err := s.tickets.GetTicket(ctx, principal, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	status := &SLAStatus{
		TicketID:           ticket.ID,
		PolicyID:           ticket.SlaPolicyID,
		EvaluatedAt:        now,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		ResolutionDueAt:    ticket.ResolutionDueAt,
	}
	if ticket.FirstResponseDueAt != nil {
		status.FirstResponseBreached = now.After(*ticket.FirstResponseDueAt)
	}
	if ticket.ResolutionDueAt == nil {
		return status, nil
	}
	status.ResolutionBreached = now.After(*ticket.ResolutionDueAt)

	var schedule *calendar.Schedule
	if ticket.SlaPolicyID != nil {
		policy, err := s.policies.ByID(ctx, *ticket.SlaPolicyID)
		if err != nil {
			return nil, mapError(err)
		}
		if policy != nil && sla.ResolveTarget(policy, ticket.Channel, ticket.Priority).UseBusinessHours {
			if schedule, err = s.projector.Schedule(policy); err != nil {
				return nil, mapError(err)
			}
			status.BusinessHours = true
		}
	}

	var remaining time.Duration
	switch {
	case status.ResolutionBreached:
	case schedule != nil:
		remaining = schedule.BusinessDuration(now, *ticket.ResolutionDueAt)
	default:
		remaining = ticket.ResolutionDueAt.Sub(now)
	}
	status.ResolutionRemaining = &remaining
	return status, nil
}

// PreviewDeadlines projects deadlines for a policy of the caller's tenant. Without
// an explicit policy the brand then tenant default applies.
func (s *SLAService) PreviewDeadlines(ctx context.Context, principal domain.Principal, input PreviewInput) (*Preview, error) {
	if !input.Channel.Valid() {
		return nil, apperrors.NewValidationError("invalid channel", map[string]any{"channel": input.Channel})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	var (
		policy *domain.SlaPolicy
		err    error
	)
	if input.PolicyID != nil && *input.PolicyID != "" {
		policy, err = s.policies.ByID(ctx, *input.PolicyID)
		if policy != nil && (policy.TenantID != principal.TenantID || policy.IsDeleted()) {
			policy = nil
		}
	} else {
		policy, err = s.policies.ResolveForTicket(ctx, principal.TenantID, emptyToNil(input.BrandID))
	}
	if err != nil {
		return nil, mapError(err)
	}
	if policy == nil {
		return nil, apperrors.NewNotFound("sla policy", nil)
	}

	anchor := s.clock.Now()
	if input.Anchor != nil {
		anchor = *input.Anchor
	}
	deadlines, err := s.projector.Project(anchor, policy, input.Channel, input.Priority)
	if err != nil {
		return nil, mapError(err)
	}
	return &Preview{
		PolicyID:  policy.ID,
		Anchor:    anchor.UTC(),
		Budget:    sla.ResolveTarget(policy, input.Channel, input.Priority),
		Deadlines: deadlines,
	}, nil
}
