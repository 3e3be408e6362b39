package sla

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Budget is the resolved minute budget for one ticket. A nil budget means the
// corresponding deadline is not tracked.
type Budget struct {
	FirstResponseMinutes *int
	ResolutionMinutes    *int
	UseBusinessHours     bool
	// Target is the matched channel/priority target, nil when policy defaults apply.
	Target *domain.SlaTarget
}

// ResolveTarget picks the budget for a channel/priority pair: the exact target
// on the policy when present, policy defaults otherwise. Each budget falls back
// to the policy default on its own when the target leaves it unset.
func ResolveTarget(policy *domain.SlaPolicy, channel domain.TicketChannel, priority domain.TicketPriority) Budget {
	if policy == nil {
		return Budget{}
	}
	budget := Budget{
		FirstResponseMinutes: policy.FirstResponseMinutes,
		ResolutionMinutes:    policy.ResolutionMinutes,
		UseBusinessHours:     policy.EnforceBusinessHours,
	}
	for i := range policy.Targets {
		target := &policy.Targets[i]
		if target.Channel != channel || target.Priority != priority {
			continue
		}
		budget.Target = target
		budget.UseBusinessHours = target.UseBusinessHours
		budget.FirstResponseMinutes = firstSet(target.FirstResponseMinutes, policy.FirstResponseMinutes)
		budget.ResolutionMinutes = firstSet(target.ResolutionMinutes, policy.ResolutionMinutes)
		break
	}
	return budget
}

func firstSet(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
