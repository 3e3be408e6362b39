package domain

import "time"

// TicketChannel identifies where a ticket came from.
type TicketChannel string

const (
	TicketChannelEmail  TicketChannel = "EMAIL"
	TicketChannelPortal TicketChannel = "PORTAL"
	TicketChannelChat   TicketChannel = "CHAT"
	TicketChannelPhone  TicketChannel = "PHONE"
	TicketChannelAPI    TicketChannel = "API"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. Only the fields the SLA engine
// and workflow engine own are modeled.
type Ticket struct {
	ID               string
	ExternalKey      string
	TenantID         string
	BrandID          *string
	Subject          string
	Channel          TicketChannel
	Priority         TicketPriority
	TicketWorkflowID *string
	// WorkflowState is a state slug, resolved against the workflow at use time.
	WorkflowState      *string
	SlaPolicyID        *string
	FirstResponseDueAt *time.Time
	ResolutionDueAt    *time.Time
	// SlaDueAt always mirrors ResolutionDueAt.
	SlaDueAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// CurrentState returns the workflow state slug or an empty string.
func (t *Ticket) CurrentState() string {
	if t == nil || t.WorkflowState == nil {
		return ""
	}
	return *t.WorkflowState
}

// Valid reports whether c is a known channel.
func (c TicketChannel) Valid() bool {
	switch c {
	case TicketChannelEmail, TicketChannelPortal, TicketChannelChat, TicketChannelPhone, TicketChannelAPI:
		return true
	}
	return false
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}
