package sla

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// PolicyStore is the read side of the policy configuration store. GetForScope
// returns pgx.ErrNoRows when nothing is configured for the exact scope; a nil
// brandID addresses the tenant-wide policy.
type PolicyStore interface {
	GetByID(ctx context.Context, id string) (*domain.SlaPolicy, error)
	GetForScope(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error)
}

// PolicyResolver selects the policy that applies to a new ticket.
type PolicyResolver struct {
	store PolicyStore
}

// NewPolicyResolver builds a resolver over the store.
func NewPolicyResolver(store PolicyStore) *PolicyResolver {
	return &PolicyResolver{store: store}
}

// ResolveForTicket returns the brand policy when one exists and is not deleted,
// otherwise the tenant-wide policy. It returns (nil, nil) when neither exists.
func (r *PolicyResolver) ResolveForTicket(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error) {
	if brandID != nil && *brandID != "" {
		policy, err := r.lookup(ctx, tenantID, brandID)
		if err != nil {
			return nil, err
		}
		if policy != nil {
			return policy, nil
		}
	}
	return r.lookup(ctx, tenantID, nil)
}

// ByID loads a policy a ticket already references. Deleted policies are still
// returned: tickets keep tracking against the snapshot they were created with.
func (r *PolicyResolver) ByID(ctx context.Context, id string) (*domain.SlaPolicy, error) {
	policy, err := r.store.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return policy, err
}

func (r *PolicyResolver) lookup(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error) {
	policy, err := r.store.GetForScope(ctx, tenantID, brandID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if policy.IsDeleted() {
		return nil, nil
	}
	return policy, nil
}
