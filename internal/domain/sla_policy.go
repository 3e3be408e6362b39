package domain

import (
	"time"
)

// BusinessHoursInterval is one weekly open window in wall-clock time.
// Start and End use the HH:MM format; several intervals may share a weekday.
type BusinessHoursInterval struct {
	Weekday time.Weekday
	Start   string
	End     string
}

// HolidayException closes a whole local calendar date.
type HolidayException struct {
	Date  time.Time
	Label *string
}

// SlaPolicy describes response commitments for a tenant or one of its brands.
type SlaPolicy struct {
	ID                   string
	TenantID             string
	BrandID              *string
	Slug                 string
	Name                 string
	IsDefault            bool
	Timezone             string
	BusinessHours        []BusinessHoursInterval
	Holidays             []HolidayException
	FirstResponseMinutes *int
	ResolutionMinutes    *int
	EnforceBusinessHours bool
	Targets              []SlaTarget
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

// IsDeleted reports whether the policy has been soft-deleted.
func (p *SlaPolicy) IsDeleted() bool {
	return p != nil && p.DeletedAt != nil
}

// SlaTarget overrides policy budgets for one channel and priority pair.
type SlaTarget struct {
	ID                   string
	PolicyID             string
	Channel              TicketChannel
	Priority             TicketPriority
	FirstResponseMinutes *int
	ResolutionMinutes    *int
	UseBusinessHours     bool
}
