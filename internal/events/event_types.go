package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated             EventType = "ticket_created"
	EventTicketStateChanged        EventType = "ticket_workflow_state_changed"
	EventTicketDeadlinesRecomputed EventType = "ticket_deadlines_recomputed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Channel            domain.TicketChannel  `json:"channel"`
	Priority           domain.TicketPriority `json:"priority"`
	WorkflowState      *string               `json:"workflow_state,omitempty"`
	SlaPolicyID        *string               `json:"sla_policy_id,omitempty"`
	FirstResponseDueAt *time.Time            `json:"first_response_due_at,omitempty"`
	ResolutionDueAt    *time.Time            `json:"resolution_due_at,omitempty"`
}

// TicketStateChangedPayload payload. EntryHook names the side effect the hook
// dispatcher runs for the new state.
type TicketStateChangedPayload struct {
	FromState string         `json:"from_state"`
	ToState   string         `json:"to_state"`
	Comment   string         `json:"comment,omitempty"`
	EntryHook string         `json:"entry_hook,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TicketDeadlinesRecomputedPayload payload.
type TicketDeadlinesRecomputedPayload struct {
	PreviousResolutionDueAt *time.Time `json:"previous_resolution_due_at,omitempty"`
	ResolutionDueAt         *time.Time `json:"resolution_due_at,omitempty"`
	SLAMinutes              int        `json:"sla_minutes"`
}
