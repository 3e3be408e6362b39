package domain

import "time"

// WorkflowState is a node of a ticket workflow.
type WorkflowState struct {
	Slug       string
	Name       string
	Position   int
	IsInitial  bool
	IsTerminal bool
	// SLAMinutes replaces the resolution budget when the state is entered.
	SLAMinutes *int
	// EntryHook names a side effect run by the hook dispatcher after entry.
	EntryHook string
}

// WorkflowTransition is a directed edge between two states of one workflow.
type WorkflowTransition struct {
	From            string
	To              string
	GuardHook       string
	RequiresComment bool
	Metadata        map[string]any
}

// TicketWorkflow is a tenant (or brand) scoped state machine definition.
type TicketWorkflow struct {
	ID          string
	TenantID    string
	BrandID     *string
	Slug        string
	Name        string
	IsDefault   bool
	States      []WorkflowState
	Transitions []WorkflowTransition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// State looks up a state by slug.
func (w *TicketWorkflow) State(slug string) (*WorkflowState, bool) {
	if w == nil {
		return nil, false
	}
	for i := range w.States {
		if w.States[i].Slug == slug {
			return &w.States[i], true
		}
	}
	return nil, false
}

// Transition looks up the edge from -> to.
func (w *TicketWorkflow) Transition(from, to string) (*WorkflowTransition, bool) {
	if w == nil {
		return nil, false
	}
	for i := range w.Transitions {
		if w.Transitions[i].From == from && w.Transitions[i].To == to {
			return &w.Transitions[i], true
		}
	}
	return nil, false
}
