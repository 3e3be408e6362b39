package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrWorkflowMisconfigured = errors.New("workflow misconfigured")

	// Rejected transitions.
	ErrUnknownState     = errors.New("unknown workflow state")
	ErrNoSuchTransition = errors.New("no such transition")
	ErrTerminalState    = errors.New("state is terminal")
	ErrCommentRequired  = errors.New("comment required")
)

// TransitionError names the rule that rejected a transition.
type TransitionError struct {
	Rule error
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q -> %q rejected: %v", e.From, e.To, e.Rule)
}

func (e *TransitionError) Unwrap() error {
	return e.Rule
}

// Code returns a stable identifier for the rejecting rule.
func (e *TransitionError) Code() string {
	switch {
	case errors.Is(e.Rule, ErrUnknownState):
		return "UNKNOWN_STATE"
	case errors.Is(e.Rule, ErrNoSuchTransition):
		return "NO_SUCH_TRANSITION"
	case errors.Is(e.Rule, ErrTerminalState):
		return "TERMINAL_STATE"
	case errors.Is(e.Rule, ErrCommentRequired):
		return "COMMENT_REQUIRED"
	default:
		return "TRANSITION_REJECTED"
	}
}

// MisconfiguredError describes why a workflow definition cannot be used.
type MisconfiguredError struct {
	WorkflowID string
	Reason     string
}

func (e *MisconfiguredError) Error() string {
	return fmt.Sprintf("workflow %s misconfigured: %s", e.WorkflowID, e.Reason)
}

func (e *MisconfiguredError) Unwrap() error {
	return ErrWorkflowMisconfigured
}

func reject(rule error, from, to string) error {
	return &TransitionError{Rule: rule, From: from, To: to}
}
