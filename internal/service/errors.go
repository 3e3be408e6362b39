package service

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/calendar"
	"github.com/spec-kit/helpdesk-service/internal/hooks"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// mapError translates engine and storage errors into API errors. Rejected
// transitions keep their rule as the error code.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var transitionErr *workflow.TransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.NewUnprocessable(transitionErr.Code(), "workflow transition rejected", map[string]any{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		}, err)
	}

	switch {
	case errors.Is(err, workflow.ErrWorkflowMisconfigured):
		return apperrors.NewConfigurationError("WORKFLOW_MISCONFIGURED", "ticket workflow is misconfigured", map[string]any{"reason": err.Error()}, err)
	case errors.Is(err, calendar.ErrNoBusinessHoursDefined):
		return apperrors.NewConfigurationError("NO_BUSINESS_HOURS", "sla policy has no business hours in the lookahead horizon", nil, err)
	case errors.Is(err, calendar.ErrInvalidTimezone), errors.Is(err, calendar.ErrInvalidClock):
		return apperrors.NewConfigurationError("SLA_POLICY_INVALID", "sla policy calendar is invalid", map[string]any{"reason": err.Error()}, err)
	case errors.Is(err, hooks.ErrUnknownHook):
		return apperrors.NewConfigurationError("HOOK_NOT_REGISTERED", "workflow references an unknown hook", map[string]any{"reason": err.Error()}, err)
	case errors.Is(err, hooks.ErrGuardRejected):
		return apperrors.NewUnprocessable("GUARD_REJECTED", "workflow guard rejected transition", map[string]any{"reason": err.Error()}, err)
	case errors.Is(err, lifecycle.ErrNoWorkflow):
		return apperrors.NewUnprocessable("NO_WORKFLOW", "ticket has no workflow", nil, err)
	case errors.Is(err, lifecycle.ErrWorkflowNotFound):
		return apperrors.NewNotFound("workflow", nil)
	case errors.Is(err, persistence.ErrLockHeld):
		return apperrors.NewDomainError("TICKET_LOCKED", "ticket is being modified by another request", http.StatusConflict, nil)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewDomainError("VERSION_CONFLICT", "ticket was modified concurrently", http.StatusConflict, nil)
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}
