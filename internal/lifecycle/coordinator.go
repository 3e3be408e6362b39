package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/workflow"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrNoWorkflow       = errors.New("ticket has no workflow")
)

// WorkflowStore is the read side of workflow configuration. GetDefault returns
// pgx.ErrNoRows when the exact scope has no default workflow.
type WorkflowStore interface {
	GetByID(ctx context.Context, id string) (*domain.TicketWorkflow, error)
	GetDefault(ctx context.Context, tenantID string, brandID *string) (*domain.TicketWorkflow, error)
}

// PolicySource resolves SLA policies.
type PolicySource interface {
	ResolveForTicket(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error)
	ByID(ctx context.Context, id string) (*domain.SlaPolicy, error)
}

// DeadlineProjector computes due instants.
type DeadlineProjector interface {
	Project(anchor time.Time, policy *domain.SlaPolicy, channel domain.TicketChannel, priority domain.TicketPriority) (sla.Deadlines, error)
	ProjectOverride(anchor time.Time, policy *domain.SlaPolicy, channel domain.TicketChannel, priority domain.TicketPriority, minutes int) (*time.Time, error)
}

// Dependencies bundles collaborators for the coordinator.
type Dependencies struct {
	Workflows WorkflowStore
	Policies  PolicySource
	Projector DeadlineProjector
}

// Coordinator assigns workflow state and SLA deadlines when tickets are
// created or moved between workflow states. Configuration is read fresh on
// every call and treated as a snapshot for the rest of it.
type Coordinator struct {
	workflows WorkflowStore
	policies  PolicySource
	projector DeadlineProjector
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(deps Dependencies) *Coordinator {
	return &Coordinator{
		workflows: deps.Workflows,
		policies:  deps.Policies,
		projector: deps.Projector,
	}
}

// TransitionResult describes what a workflow transition changed.
type TransitionResult struct {
	Outcome                 workflow.Outcome
	DeadlinesChanged        bool
	PreviousResolutionDueAt *time.Time
}

// Create fills in the workflow, initial state, SLA policy and deadlines of a
// new ticket anchored at now. A ticket without an applicable policy keeps all
// deadlines nil.
func (c *Coordinator) Create(ctx context.Context, ticket *domain.Ticket, now time.Time) error {
	wf, err := c.resolveWorkflow(ctx, ticket)
	if err != nil {
		return err
	}
	var initial string
	if wf != nil {
		if err := workflow.Check(wf); err != nil {
			return err
		}
		if initial, err = workflow.InitialState(wf); err != nil {
			return err
		}
	}

	policy, err := c.policies.ResolveForTicket(ctx, ticket.TenantID, ticket.BrandID)
	if err != nil {
		return fmt.Errorf("resolve sla policy: %w", err)
	}
	deadlines, err := c.projector.Project(now, policy, ticket.Channel, ticket.Priority)
	if err != nil {
		return err
	}

	if wf != nil {
		ticket.TicketWorkflowID = &wf.ID
		ticket.WorkflowState = &initial
	}
	ticket.SlaPolicyID = nil
	if policy != nil {
		ticket.SlaPolicyID = &policy.ID
	}
	ticket.FirstResponseDueAt = deadlines.FirstResponseDueAt
	ticket.ResolutionDueAt = deadlines.ResolutionDueAt
	ticket.SlaDueAt = deadlines.SlaDueAt
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	return nil
}

// Transition moves the ticket to the target state at the given instant. When
// the new state carries its own SLA minutes the resolution deadline is
// re-projected from that instant with that budget; the first response
// deadline never changes. Rejections are returned unchanged and leave the
// ticket untouched.
func (c *Coordinator) Transition(ctx context.Context, ticket *domain.Ticket, to string, tc workflow.TransitionContext, at time.Time) (TransitionResult, error) {
	if ticket.TicketWorkflowID == nil {
		return TransitionResult{}, ErrNoWorkflow
	}
	wf, err := c.workflows.GetByID(ctx, *ticket.TicketWorkflowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TransitionResult{}, ErrWorkflowNotFound
	}
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load workflow: %w", err)
	}

	out, err := workflow.Apply(ticket, wf, to, tc)
	if err != nil {
		return TransitionResult{}, err
	}

	result := TransitionResult{Outcome: out, PreviousResolutionDueAt: ticket.ResolutionDueAt}
	var due *time.Time
	if out.SLAMinutesOverride != nil && ticket.SlaPolicyID != nil {
		policy, err := c.policies.ByID(ctx, *ticket.SlaPolicyID)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("load sla policy: %w", err)
		}
		if policy != nil {
			if due, err = c.projector.ProjectOverride(at, policy, ticket.Channel, ticket.Priority, *out.SLAMinutesOverride); err != nil {
				return TransitionResult{}, err
			}
			result.DeadlinesChanged = true
		}
	}

	state := out.State.Slug
	ticket.WorkflowState = &state
	if result.DeadlinesChanged {
		ticket.ResolutionDueAt = due
		ticket.SlaDueAt = copyTime(due)
	}
	return result, nil
}

func (c *Coordinator) resolveWorkflow(ctx context.Context, ticket *domain.Ticket) (*domain.TicketWorkflow, error) {
	if ticket.TicketWorkflowID != nil && *ticket.TicketWorkflowID != "" {
		wf, err := c.workflows.GetByID(ctx, *ticket.TicketWorkflowID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load workflow: %w", err)
		}
		if wf.TenantID != ticket.TenantID {
			return nil, ErrWorkflowNotFound
		}
		return wf, nil
	}

	if ticket.BrandID != nil && *ticket.BrandID != "" {
		wf, err := c.workflows.GetDefault(ctx, ticket.TenantID, ticket.BrandID)
		if err == nil {
			return wf, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load default workflow: %w", err)
		}
	}
	wf, err := c.workflows.GetDefault(ctx, ticket.TenantID, nil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load default workflow: %w", err)
	}
	return wf, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
