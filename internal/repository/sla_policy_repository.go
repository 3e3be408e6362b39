package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SlaPolicyRepository reads SLA policies together with their business hours,
// holidays and targets.
type SlaPolicyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SlaPolicy, error)
	GetForScope(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSlaPolicyRepository builds the repository.
func NewSlaPolicyRepository(pool *pgxpool.Pool) SlaPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

const slaPolicyColumns = `id, tenant_id, brand_id, slug, name, is_default, timezone,
               first_response_minutes, resolution_minutes, enforce_business_hours,
               created_at, updated_at, deleted_at`

func (r *slaPolicyRepository) GetByID(ctx context.Context, id string) (*domain.SlaPolicy, error) {
	query := `SELECT ` + slaPolicyColumns + ` FROM sla_policies WHERE id=$1`
	return r.fetch(ctx, query, id)
}

// GetForScope returns the live policy for exactly (tenant, brand); a nil brand
// matches only tenant-wide policies. The default flag wins over older rows.
func (r *slaPolicyRepository) GetForScope(ctx context.Context, tenantID string, brandID *string) (*domain.SlaPolicy, error) {
	query := `SELECT ` + slaPolicyColumns + ` FROM sla_policies
        WHERE tenant_id=$1 AND brand_id IS NOT DISTINCT FROM $2 AND deleted_at IS NULL
        ORDER BY is_default DESC, created_at ASC
        LIMIT 1`
	return r.fetch(ctx, query, tenantID, brandID)
}

func (r *slaPolicyRepository) fetch(ctx context.Context, query string, args ...any) (*domain.SlaPolicy, error) {
	var policy domain.SlaPolicy
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&policy.ID,
		&policy.TenantID,
		&policy.BrandID,
		&policy.Slug,
		&policy.Name,
		&policy.IsDefault,
		&policy.Timezone,
		&policy.FirstResponseMinutes,
		&policy.ResolutionMinutes,
		&policy.EnforceBusinessHours,
		&policy.CreatedAt,
		&policy.UpdatedAt,
		&policy.DeletedAt,
	); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *slaPolicyRepository) loadChildren(ctx context.Context, policy *domain.SlaPolicy) error {
	hours, err := r.pool.Query(ctx, `
        SELECT weekday, start_time, end_time FROM sla_business_hours
        WHERE policy_id=$1 ORDER BY weekday, start_time`, policy.ID)
	if err != nil {
		return err
	}
	policy.BusinessHours, err = pgx.CollectRows(hours, func(row pgx.CollectableRow) (domain.BusinessHoursInterval, error) {
		var (
			interval domain.BusinessHoursInterval
			weekday  int16
		)
		err := row.Scan(&weekday, &interval.Start, &interval.End)
		interval.Weekday = time.Weekday(weekday)
		return interval, err
	})
	if err != nil {
		return err
	}

	holidays, err := r.pool.Query(ctx, `
        SELECT holiday_date, label FROM sla_holidays
        WHERE policy_id=$1 ORDER BY holiday_date`, policy.ID)
	if err != nil {
		return err
	}
	policy.Holidays, err = pgx.CollectRows(holidays, func(row pgx.CollectableRow) (domain.HolidayException, error) {
		var holiday domain.HolidayException
		err := row.Scan(&holiday.Date, &holiday.Label)
		return holiday, err
	})
	if err != nil {
		return err
	}

	targets, err := r.pool.Query(ctx, `
        SELECT id, policy_id, channel, priority, first_response_minutes, resolution_minutes, use_business_hours
        FROM sla_targets WHERE policy_id=$1`, policy.ID)
	if err != nil {
		return err
	}
	policy.Targets, err = pgx.CollectRows(targets, func(row pgx.CollectableRow) (domain.SlaTarget, error) {
		var target domain.SlaTarget
		err := row.Scan(
			&target.ID,
			&target.PolicyID,
			&target.Channel,
			&target.Priority,
			&target.FirstResponseMinutes,
			&target.ResolutionMinutes,
			&target.UseBusinessHours,
		)
		return target, err
	})
	return err
}
