package harness

import (
	"github.com/roach88/quorum/internal/ir"
)

// StepOutcome records what one step actually did.
type StepOutcome struct {
	Op    string `json:"op"`
	As    string `json:"as"`
	Index uint64 `json:"index"`

	// Error is the ledger error code, empty on success.
	Error string `json:"error,omitempty"`

	// Message is the full error text, empty on success.
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expectation and all assertions held.
	Pass bool `json:"pass"`

	// Trace contains every emitted event in seq order.
	Trace []ir.Event `json:"trace"`

	// Steps holds one outcome per scenario step.
	Steps []StepOutcome `json:"steps"`

	// Calls are the actions handed to the Action Executor, in call order.
	Calls []ir.Action `json:"calls"`

	// Proposals are the final ledger snapshots, ordered by index.
	Proposals []ir.ProposalState `json:"proposals"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []ir.Event{},
		Steps:     []StepOutcome{},
		Calls:     []ir.Action{},
		Proposals: []ir.ProposalState{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// proposal returns the final snapshot at index.
func (r *Result) proposal(index uint64) (ir.ProposalState, bool) {
	for _, p := range r.Proposals {
		if p.Index == index {
			return p, true
		}
	}
	return ir.ProposalState{}, false
}
