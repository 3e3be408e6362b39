package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/hooks"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketLocker serializes mutations of a single ticket.
type TicketLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// GuardEvaluator runs a transition guard by name.
type GuardEvaluator interface {
	EvaluateGuard(ctx context.Context, name string, inv hooks.Invocation) error
}

// TicketService coordinates ticket creation and workflow transitions.
type TicketService struct {
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	coordinator *lifecycle.Coordinator
	locker      TicketLocker
	lockTTL     time.Duration
	guards      GuardEvaluator
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	clock       Clock
	keyPrefix   string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Coordinator *lifecycle.Coordinator
	Locker      TicketLocker
	LockTTL     time.Duration
	Guards      GuardEvaluator
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
	KeyPrefix   string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	BrandID    *string
	WorkflowID *string
	Subject    string
	Channel    domain.TicketChannel
	Priority   domain.TicketPriority
}

// TicketListFilter describes listing filters within the caller's tenant.
type TicketListFilter struct {
	BrandID        *string
	WorkflowStates []string
	Priorities     []domain.TicketPriority
	Channels       []domain.TicketChannel
	SlaDueBefore   *time.Time
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// TransitionInput is a request to move a ticket to another workflow state.
type TransitionInput struct {
	ToState string
	Comment string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	prefix := deps.KeyPrefix
	if prefix == "" {
		prefix = "TCK"
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		history:     deps.HistoryRepo,
		coordinator: deps.Coordinator,
		locker:      deps.Locker,
		lockTTL:     ttl,
		guards:      deps.Guards,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		clock:       clock,
		keyPrefix:   prefix,
	}
}

// CreateTicket creates a ticket in the caller's tenant with its initial
// workflow state and SLA deadlines.
func (s *TicketService) CreateTicket(ctx context.Context, principal domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Channel.Valid() {
		return nil, apperrors.NewValidationError("invalid channel", map[string]any{"channel": input.Channel})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		ExternalKey:      s.generateTicketKey(),
		TenantID:         principal.TenantID,
		BrandID:          emptyToNil(input.BrandID),
		Subject:          subject,
		Channel:          input.Channel,
		Priority:         input.Priority,
		TicketWorkflowID: emptyToNil(input.WorkflowID),
	}

	now := s.clock.Now()
	if err := s.coordinator.Create(ctx, ticket, now); err != nil {
		return nil, mapError(err)
	}
	s.metrics.RecordDeadlineProjection()
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapError(err)
	}

	if err := s.recordHistory(ctx, principal, ticket.ID, domain.ChangeTypeCreated, nil, map[string]any{
		"workflow_state":        ticket.WorkflowState,
		"sla_policy_id":         ticket.SlaPolicyID,
		"first_response_due_at": ticket.FirstResponseDueAt,
		"resolution_due_at":     ticket.ResolutionDueAt,
	}); err != nil {
		return nil, mapError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("tenant_id", ticket.TenantID),
		zap.String("state", ticket.CurrentState()),
		zap.Timep("resolution_due_at", ticket.ResolutionDueAt))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    staffActor(principal.StaffID),
		Payload: events.TicketCreatedPayload{
			Channel:            ticket.Channel,
			Priority:           ticket.Priority,
			WorkflowState:      ticket.WorkflowState,
			SlaPolicyID:        ticket.SlaPolicyID,
			FirstResponseDueAt: ticket.FirstResponseDueAt,
			ResolutionDueAt:    ticket.ResolutionDueAt,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket of the caller's tenant.
func (s *TicketService) GetTicket(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, principal.TenantID, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	if err != nil {
		return nil, mapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets of the caller's tenant.
func (s *TicketService) ListTickets(ctx context.Context, principal domain.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		TenantID:       principal.TenantID,
		BrandID:        filter.BrandID,
		WorkflowStates: filter.WorkflowStates,
		Priorities:     filter.Priorities,
		Channels:       filter.Channels,
		SlaDueBefore:   filter.SlaDueBefore,
		CreatedFrom:    filter.CreatedFrom,
		CreatedTo:      filter.CreatedTo,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return tickets, nil
}

// ListHistory returns audit entries for a ticket of the caller's tenant.
func (s *TicketService) ListHistory(ctx context.Context, principal domain.Principal, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, principal, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// TransitionTicket moves a ticket to another workflow state. The ticket is
// locked for the duration of the call; the guard hook runs before anything is
// persisted and the entry hook runs after, through the state change event.
func (s *TicketService) TransitionTicket(ctx context.Context, principal domain.Principal, ticketID string, input TransitionInput) (*domain.Ticket, error) {
	to := strings.TrimSpace(input.ToState)
	if to == "" {
		return nil, apperrors.NewValidationError("to_state required", nil)
	}

	release, err := s.locker.Acquire(ctx, ticketID, s.lockTTL)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release ticket lock", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	}()

	ticket, err := s.GetTicket(ctx, principal, ticketID)
	if err != nil {
		return nil, err
	}

	tc := workflow.TransitionContext{Comment: input.Comment, ActorID: principal.StaffID}
	at := s.clock.Now()
	result, err := s.coordinator.Transition(ctx, ticket, to, tc, at)
	if err != nil {
		s.recordTransitionOutcome(err)
		return nil, mapError(err)
	}
	out := result.Outcome

	if s.guards != nil && out.GuardHook != "" {
		inv := hooks.Invocation{
			TenantID:  ticket.TenantID,
			TicketID:  ticket.ID,
			FromState: out.From,
			ToState:   out.State.Slug,
			Comment:   input.Comment,
			ActorID:   optional(principal.StaffID),
			Metadata:  out.Transition.Metadata,
		}
		if err := s.guards.EvaluateGuard(ctx, out.GuardHook, inv); err != nil {
			s.recordTransitionOutcome(err)
			return nil, mapError(err)
		}
	}

	if err := s.tickets.UpdateLifecycle(ctx, ticket); err != nil {
		return nil, mapError(err)
	}
	s.recordTransitionOutcome(nil)

	if err := s.recordHistory(ctx, principal, ticket.ID, domain.ChangeTypeWorkflowState,
		map[string]any{"workflow_state": out.From},
		map[string]any{"workflow_state": out.State.Slug, "comment": input.Comment},
	); err != nil {
		return nil, mapError(err)
	}
	if result.DeadlinesChanged {
		s.metrics.RecordDeadlineProjection()
		if err := s.recordHistory(ctx, principal, ticket.ID, domain.ChangeTypeDeadlines,
			map[string]any{"resolution_due_at": result.PreviousResolutionDueAt},
			map[string]any{"resolution_due_at": ticket.ResolutionDueAt, "sla_minutes": *out.SLAMinutesOverride},
		); err != nil {
			return nil, mapError(err)
		}
	}

	s.logger.Info("ticket workflow transition",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", out.From),
		zap.String("to", out.State.Slug),
		zap.Bool("deadlines_changed", result.DeadlinesChanged),
		zap.Timep("resolution_due_at", ticket.ResolutionDueAt))

	actor := staffActor(principal.StaffID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStateChanged,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStateChangedPayload{
			FromState: out.From,
			ToState:   out.State.Slug,
			Comment:   input.Comment,
			EntryHook: out.EntryHook,
			Metadata:  out.Transition.Metadata,
		},
	})
	if result.DeadlinesChanged {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketDeadlinesRecomputed,
			TenantID: ticket.TenantID,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload: events.TicketDeadlinesRecomputedPayload{
				PreviousResolutionDueAt: result.PreviousResolutionDueAt,
				ResolutionDueAt:         ticket.ResolutionDueAt,
				SLAMinutes:              *out.SLAMinutesOverride,
			},
		})
	}
	return ticket, nil
}

func (s *TicketService) recordTransitionOutcome(err error) {
	if err == nil {
		s.metrics.RecordTransition("ok")
		return
	}
	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		s.metrics.RecordTransition(transitionErr.Code())
		return
	}
	if errors.Is(err, hooks.ErrGuardRejected) {
		s.metrics.RecordTransition("GUARD_REJECTED")
	}
}

func (s *TicketService) recordHistory(ctx context.Context, principal domain.Principal, ticketID string, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.SubjectTypeStaff,
		ChangedByID:   optional(principal.StaffID),
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if entry.ChangedByID == nil {
		entry.ChangedByType = domain.SubjectTypeSystem
	}
	return s.history.Create(ctx, entry)
}

// publishEvent hands the event to subscribers. The change is already
// committed, so subscriber failures are logged rather than returned.
func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func (s *TicketService) generateTicketKey() string {
	return s.keyPrefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func staffActor(staffID string) events.Actor {
	if staffID == "" {
		return events.Actor{Type: domain.SubjectTypeSystem}
	}
	return events.Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func emptyToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
