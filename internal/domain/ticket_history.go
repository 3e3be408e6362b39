package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated       TicketChangeType = "CREATED"
	ChangeTypeWorkflowState TicketChangeType = "WORKFLOW_STATE_CHANGE"
	ChangeTypeDeadlines     TicketChangeType = "DEADLINES_CHANGE"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType SubjectType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
