package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/ledger"
)

// Scenario defines a conformance test scenario.
// A scenario builds a wallet, drives a sequence of ledger operations and
// asserts on the resulting event trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Wallet is the owner set and threshold the ledger is built with.
	Wallet WalletDef `yaml:"wallet"`

	// Executor selects the Action Executor behavior: "succeed" (default)
	// or "fail".
	Executor string `yaml:"executor,omitempty"`

	// Steps are the ledger operations, run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`

	// FlowToken stamps every stored event. If empty, defaults to
	// "test-flow-default" for deterministic golden file comparison.
	FlowToken string `yaml:"flow_token,omitempty"`
}

// WalletDef is the inline wallet definition of a scenario.
type WalletDef struct {
	Owners    []string `yaml:"owners"`
	Threshold int      `yaml:"threshold"`
}

// Step is one ledger operation.
type Step struct {
	// Op is one of submit, confirm, revoke, amend, execute.
	Op string `yaml:"op"`

	// As is the caller identity. Empty means the null identity.
	As string `yaml:"as"`

	// Index addresses the proposal (ignored by submit).
	Index uint64 `yaml:"index,omitempty"`

	// Target, Value and Payload are the proposal content for submit and
	// amend. Payload is hex with an optional 0x prefix.
	Target  string `yaml:"target,omitempty"`
	Value   uint64 `yaml:"value,omitempty"`
	Payload string `yaml:"payload,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected ledger error code (e.g. "QUORUM_NOT_MET").
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Index is the index a successful submit must return.
	Index *uint64 `yaml:"index,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "proposal": Check fields of the proposal at Index
	// - "event_count": Check events of Kind appear exactly Count times
	// - "event_order": Check kinds appear in order
	// - "executor_calls": Check the Action Executor was called Count times
	// - "invariant": Check confirmation_count == |confirmed_by| everywhere
	// - "final_state": Query a store table and verify expected values
	Type string `yaml:"type"`

	// Index is the proposal index (proposal, and optional filter for
	// event_count and event_order).
	Index *uint64 `yaml:"index,omitempty"`

	// Proposal fields, each checked only when set (proposal).
	Executed      *bool    `yaml:"executed,omitempty"`
	Confirmations *int     `yaml:"confirmations,omitempty"`
	ConfirmedBy   []string `yaml:"confirmed_by,omitempty"`
	Target        *string  `yaml:"target,omitempty"`
	Value         *uint64  `yaml:"value,omitempty"`
	Payload       *string  `yaml:"payload,omitempty"`

	// Kind is the event kind (event_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of occurrences (event_count, executor_calls).
	Count *int `yaml:"count,omitempty"`

	// Kinds is the expected event order (event_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertProposal      = "proposal"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertExecutorCalls = "executor_calls"
	AssertInvariant     = "invariant"
	AssertFinalState    = "final_state"
)

// Step operations.
const (
	OpSubmit  = "submit"
	OpConfirm = "confirm"
	OpRevoke  = "revoke"
	OpAmend   = "amend"
	OpExecute = "execute"
)

// Executor modes.
const (
	ExecutorSucceed = "succeed"
	ExecutorFail    = "fail"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// The wallet itself is validated by the registry when the scenario runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Wallet.Owners) == 0 {
		return fmt.Errorf("wallet.owners is required and must be non-empty")
	}

	switch s.Executor {
	case "", ExecutorSucceed, ExecutorFail:
	default:
		return fmt.Errorf("executor must be %q or %q, got %q", ExecutorSucceed, ExecutorFail, s.Executor)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpSubmit, OpAmend:
		if _, err := ir.DecodePayload(st.Payload); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case OpConfirm, OpRevoke, OpExecute:
		if st.Target != "" || st.Value != 0 || st.Payload != "" {
			return fmt.Errorf("steps[%d]: %s takes no proposal content", index, st.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != nil {
		if st.Expect.Error != "" {
			if _, err := ledger.ParseErrorCode(st.Expect.Error); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", index, err)
			}
			if st.Expect.Index != nil {
				return fmt.Errorf("steps[%d].expect: index and error are exclusive", index)
			}
		}
		if st.Expect.Index != nil && st.Op != OpSubmit {
			return fmt.Errorf("steps[%d].expect: index is only valid for submit", index)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertProposal:
		if a.Index == nil {
			return fmt.Errorf("assertions[%d]: index is required for proposal", index)
		}
	case AssertEventCount:
		if _, err := ir.ParseEventKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
		for _, k := range a.Kinds {
			if _, err := ir.ParseEventKind(k); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertExecutorCalls:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for executor_calls", index)
		}
	case AssertInvariant:
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
