package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	BrandID    *string               `json:"brand_id"`
	WorkflowID *string               `json:"workflow_id"`
	Subject    string                `json:"subject"`
	Channel    domain.TicketChannel  `json:"channel"`
	Priority   domain.TicketPriority `json:"priority"`
}

// TransitionRequest asks for a workflow state change.
type TransitionRequest struct {
	ToState string `json:"to_state"`
	Comment string `json:"comment"`
}

// TicketResponse describes a ticket with its lifecycle fields.
type TicketResponse struct {
	ID                 string                `json:"id"`
	ExternalKey        string                `json:"external_key"`
	BrandID            *string               `json:"brand_id"`
	Subject            string                `json:"subject"`
	Channel            domain.TicketChannel  `json:"channel"`
	Priority           domain.TicketPriority `json:"priority"`
	TicketWorkflowID   *string               `json:"ticket_workflow_id"`
	WorkflowState      *string               `json:"workflow_state"`
	SlaPolicyID        *string               `json:"sla_policy_id"`
	FirstResponseDueAt *time.Time            `json:"first_response_due_at"`
	ResolutionDueAt    *time.Time            `json:"resolution_due_at"`
	SlaDueAt           *time.Time            `json:"sla_due_at"`
	Version            int                   `json:"version"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// TicketHistoryResponse describes an audit entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByType domain.SubjectType      `json:"changed_by_type"`
	ChangedByID   *string                 `json:"changed_by_id"`
	OldValue      map[string]any          `json:"old_value"`
	NewValue      map[string]any          `json:"new_value"`
	CreatedAt     time.Time               `json:"created_at"`
}
