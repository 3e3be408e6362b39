package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// WorkflowRepository reads ticket workflow definitions.
type WorkflowRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketWorkflow, error)
	GetDefault(ctx context.Context, tenantID string, brandID *string) (*domain.TicketWorkflow, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository builds the repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, tenant_id, brand_id, slug, name, is_default, created_at, updated_at`

func (r *workflowRepository) GetByID(ctx context.Context, id string) (*domain.TicketWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM ticket_workflows WHERE id=$1`
	return r.fetch(ctx, query, id)
}

// GetDefault returns the default workflow of exactly (tenant, brand).
func (r *workflowRepository) GetDefault(ctx context.Context, tenantID string, brandID *string) (*domain.TicketWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM ticket_workflows
        WHERE tenant_id=$1 AND brand_id IS NOT DISTINCT FROM $2 AND is_default`
	return r.fetch(ctx, query, tenantID, brandID)
}

func (r *workflowRepository) fetch(ctx context.Context, query string, args ...any) (*domain.TicketWorkflow, error) {
	var wf domain.TicketWorkflow
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&wf.ID,
		&wf.TenantID,
		&wf.BrandID,
		&wf.Slug,
		&wf.Name,
		&wf.IsDefault,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	); err != nil {
		return nil, err
	}

	states, err := r.pool.Query(ctx, `
        SELECT slug, name, position, is_initial, is_terminal, sla_minutes, entry_hook
        FROM workflow_states WHERE workflow_id=$1 ORDER BY position, slug`, wf.ID)
	if err != nil {
		return nil, err
	}
	wf.States, err = pgx.CollectRows(states, func(row pgx.CollectableRow) (domain.WorkflowState, error) {
		var st domain.WorkflowState
		err := row.Scan(&st.Slug, &st.Name, &st.Position, &st.IsInitial, &st.IsTerminal, &st.SLAMinutes, &st.EntryHook)
		return st, err
	})
	if err != nil {
		return nil, err
	}

	transitions, err := r.pool.Query(ctx, `
        SELECT from_state, to_state, guard_hook, requires_comment, metadata
        FROM workflow_transitions WHERE workflow_id=$1`, wf.ID)
	if err != nil {
		return nil, err
	}
	wf.Transitions, err = pgx.CollectRows(transitions, func(row pgx.CollectableRow) (domain.WorkflowTransition, error) {
		var tr domain.WorkflowTransition
		err := row.Scan(&tr.From, &tr.To, &tr.GuardHook, &tr.RequiresComment, &tr.Metadata)
		return tr, err
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}
