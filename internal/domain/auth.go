package domain

// SubjectType differentiates who acted on a ticket.
type SubjectType string

const (
	SubjectTypeStaff  SubjectType = "STAFF"
	SubjectTypeSystem SubjectType = "SYSTEM"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent StaffRole = "AGENT"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	StaffID  string
	TenantID string
	Role     StaffRole
}
