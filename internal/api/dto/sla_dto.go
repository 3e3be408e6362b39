package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SLAStatusResponse reports deadlines and breach state of a ticket.
type SLAStatusResponse struct {
	TicketID                   string     `json:"ticket_id"`
	PolicyID                   *string    `json:"sla_policy_id"`
	EvaluatedAt                time.Time  `json:"evaluated_at"`
	FirstResponseDueAt         *time.Time `json:"first_response_due_at"`
	ResolutionDueAt            *time.Time `json:"resolution_due_at"`
	FirstResponseBreached      bool       `json:"first_response_breached"`
	ResolutionBreached         bool       `json:"resolution_breached"`
	BusinessHours              bool       `json:"business_hours"`
	ResolutionRemainingMinutes *int64     `json:"resolution_remaining_minutes"`
}

// SLAPreviewRequest asks for deadlines without creating a ticket.
type SLAPreviewRequest struct {
	PolicyID *string               `json:"sla_policy_id"`
	BrandID  *string               `json:"brand_id"`
	Channel  domain.TicketChannel  `json:"channel"`
	Priority domain.TicketPriority `json:"priority"`
	Anchor   *time.Time            `json:"anchor"`
}

// SLAPreviewResponse carries projected deadlines.
type SLAPreviewResponse struct {
	PolicyID             string     `json:"sla_policy_id"`
	Anchor               time.Time  `json:"anchor"`
	UseBusinessHours     bool       `json:"use_business_hours"`
	FirstResponseMinutes *int       `json:"first_response_minutes"`
	ResolutionMinutes    *int       `json:"resolution_minutes"`
	FirstResponseDueAt   *time.Time `json:"first_response_due_at"`
	ResolutionDueAt      *time.Time `json:"resolution_due_at"`
	SlaDueAt             *time.Time `json:"sla_due_at"`
}
