package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrVersionConflict means the ticket changed since it was read.
var ErrVersionConflict = errors.New("ticket was modified concurrently")

// TicketFilter captures listing parameters. TenantID is mandatory.
type TicketFilter struct {
	TenantID       string
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

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error)
	UpdateLifecycle(ctx context.Context, ticket *domain.Ticket) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, tenant_id, brand_id, subject, channel, priority,
               ticket_workflow_id, workflow_state, sla_policy_id,
               first_response_due_at, resolution_due_at, sla_due_at,
               version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, tenant_id, brand_id, subject, channel, priority,
            ticket_workflow_id, workflow_state, sla_policy_id,
            first_response_due_at, resolution_due_at, sla_due_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
        RETURNING id, version, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.TenantID,
		ticket.BrandID,
		ticket.Subject,
		ticket.Channel,
		ticket.Priority,
		ticket.TicketWorkflowID,
		ticket.WorkflowState,
		ticket.SlaPolicyID,
		ticket.FirstResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.SlaDueAt,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.Version, &ticket.UpdatedAt)
}

// UpdateLifecycle writes the workflow state and deadlines, guarded by the
// version the ticket was read at.
func (r *ticketRepository) UpdateLifecycle(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET workflow_state=$1, resolution_due_at=$2, sla_due_at=$3,
            version=version+1, updated_at=NOW()
        WHERE id=$4 AND tenant_id=$5 AND version=$6
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.WorkflowState,
		ticket.ResolutionDueAt,
		ticket.SlaDueAt,
		ticket.ID,
		ticket.TenantID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 AND tenant_id=$2`
	rows, err := r.pool.Query(ctx, query, id, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"tenant_id=$1"}
	args := []any{filter.TenantID}

	if filter.BrandID != nil {
		args = append(args, *filter.BrandID)
		clauses = append(clauses, fmt.Sprintf("brand_id=$%d", len(args)))
	}
	if len(filter.WorkflowStates) > 0 {
		args = append(args, filter.WorkflowStates)
		clauses = append(clauses, fmt.Sprintf("workflow_state = ANY($%d)", len(args)))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Channels) > 0 {
		placeholders := make([]string, len(filter.Channels))
		for i, ch := range filter.Channels {
			args = append(args, ch)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("channel IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SlaDueBefore != nil {
		args = append(args, *filter.SlaDueBefore)
		clauses = append(clauses, fmt.Sprintf("sla_due_at <= $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	order := "created_at DESC"
	if filter.SlaDueBefore != nil {
		order = "sla_due_at ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ExternalKey,
			&ticket.TenantID,
			&ticket.BrandID,
			&ticket.Subject,
			&ticket.Channel,
			&ticket.Priority,
			&ticket.TicketWorkflowID,
			&ticket.WorkflowState,
			&ticket.SlaPolicyID,
			&ticket.FirstResponseDueAt,
			&ticket.ResolutionDueAt,
			&ticket.SlaDueAt,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
