package workflow

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TransitionContext carries caller input that transition rules inspect.
type TransitionContext struct {
	Comment string
	ActorID string
}

// Outcome is the decision returned by Apply. Hooks are names only; running
// them is up to the hook dispatcher.
type Outcome struct {
	From       string
	State      domain.WorkflowState
	Transition domain.WorkflowTransition
	// SLAMinutesOverride replaces the resolution budget, anchored at the
	// transition instant.
	SLAMinutesOverride *int
	EntryHook          string
	GuardHook          string
}

// InitialState returns the slug of the single initial state.
func InitialState(wf *domain.TicketWorkflow) (string, error) {
	if wf == nil {
		return "", &MisconfiguredError{Reason: "workflow missing"}
	}
	var initial []string
	for _, st := range wf.States {
		if st.IsInitial {
			initial = append(initial, st.Slug)
		}
	}
	switch len(initial) {
	case 1:
		return initial[0], nil
	case 0:
		return "", &MisconfiguredError{WorkflowID: wf.ID, Reason: "no initial state"}
	default:
		return "", &MisconfiguredError{
			WorkflowID: wf.ID,
			Reason:     fmt.Sprintf("multiple initial states: %s", strings.Join(initial, ", ")),
		}
	}
}

// Check verifies the whole definition: one initial state, unique slugs and
// transitions that only reference existing states.
func Check(wf *domain.TicketWorkflow) error {
	if _, err := InitialState(wf); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(wf.States))
	for _, st := range wf.States {
		if st.Slug == "" {
			return &MisconfiguredError{WorkflowID: wf.ID, Reason: "state without slug"}
		}
		if _, dup := seen[st.Slug]; dup {
			return &MisconfiguredError{WorkflowID: wf.ID, Reason: fmt.Sprintf("duplicate state %q", st.Slug)}
		}
		seen[st.Slug] = struct{}{}
	}
	for _, tr := range wf.Transitions {
		if _, ok := seen[tr.From]; !ok {
			return &MisconfiguredError{WorkflowID: wf.ID, Reason: fmt.Sprintf("transition from unknown state %q", tr.From)}
		}
		if _, ok := seen[tr.To]; !ok {
			return &MisconfiguredError{WorkflowID: wf.ID, Reason: fmt.Sprintf("transition to unknown state %q", tr.To)}
		}
	}
	return nil
}

// ValidateTransition checks a requested move and returns the matching edge.
// Rules apply in order: the source state exists, an edge exists (a target
// that is not a member has no edge), the edge points at a member state, the
// source state is not terminal, a required comment is present. Self
// transitions need an explicit edge like any other.
func ValidateTransition(wf *domain.TicketWorkflow, from, to string, tc TransitionContext) (*domain.WorkflowTransition, error) {
	source, ok := wf.State(from)
	if !ok {
		return nil, reject(ErrUnknownState, from, to)
	}
	edge, ok := wf.Transition(from, to)
	if !ok {
		return nil, reject(ErrNoSuchTransition, from, to)
	}
	if _, ok := wf.State(to); !ok {
		return nil, reject(ErrUnknownState, from, to)
	}
	if source.IsTerminal {
		return nil, reject(ErrTerminalState, from, to)
	}
	if edge.RequiresComment && strings.TrimSpace(tc.Comment) == "" {
		return nil, reject(ErrCommentRequired, from, to)
	}
	return edge, nil
}

// Apply validates moving the ticket to the target state and reports the new
// state together with any SLA override it carries.
func Apply(ticket *domain.Ticket, wf *domain.TicketWorkflow, to string, tc TransitionContext) (Outcome, error) {
	if err := Check(wf); err != nil {
		return Outcome{}, err
	}
	from := ticket.CurrentState()
	edge, err := ValidateTransition(wf, from, to, tc)
	if err != nil {
		return Outcome{}, err
	}
	target, _ := wf.State(to)
	out := Outcome{
		From:       from,
		State:      *target,
		Transition: *edge,
		EntryHook:  target.EntryHook,
		GuardHook:  edge.GuardHook,
	}
	if target.SLAMinutes != nil {
		minutes := *target.SLAMinutes
		out.SLAMinutesOverride = &minutes
	}
	return out, nil
}
