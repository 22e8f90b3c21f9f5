// Package harness provides conformance testing for quorum wallets.
//
// The harness builds a wallet from an inline definition, executes a
// scenario's ledger operations, and validates the resulting event trace
// and stored state as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	wallet:
//	  owners: [alice, bob, carol]
//	  threshold: 2
//	executor: succeed
//	steps:
//	  - op: submit
//	    as: alice
//	    target: treasury
//	    value: 100
//	    expect: { index: 0 }
//	  - op: confirm
//	    as: bob
//	    index: 0
//	  - op: execute
//	    as: carol
//	    index: 0
//	    expect: { error: QUORUM_NOT_MET }
//	assertions:
//	  - type: proposal
//	    index: 0
//	    executed: false
//	    confirmed_by: [bob]
//	  - type: event_count
//	    kind: confirmed
//	    count: 1
//	  - type: final_state
//	    table: proposals
//	    where: { idx: 0 }
//	    expect: { executed: false }
//
// A step without an expect clause must succeed.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - proposal: Verifies fields of the final snapshot of one proposal
//   - event_count: Verifies events of a kind appear exactly N times
//   - event_order: Verifies event kinds appear in the given order
//   - executor_calls: Verifies how many times the Action Executor ran
//   - invariant: Verifies count/confirmer agreement and that nothing
//     follows an executed event
//   - final_state: Queries a store table and verifies expected values
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic clock and flow token so that
// traces are identical across runs and can be compared with golden files:
//   - Fixed flow token (scenario.flow_token or "test-flow-default")
//   - Deterministic logical clock (testutil.DeterministicClock)
//   - In-memory SQLite database (isolated per scenario)
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/quorum_met.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
