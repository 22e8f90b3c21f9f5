package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/quorum/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string        `json:"scenario_name"`
	FlowToken    string        `json:"flow_token,omitempty"`
	Trace        []ir.Event    `json:"trace"`
	Steps        []StepOutcome `json:"steps"`
}

// NewTraceSnapshot builds the snapshot of result for scenario.
func NewTraceSnapshot(scenario *Scenario, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: scenario.Name,
		FlowToken:    scenario.FlowToken,
		Trace:        result.Trace,
		Steps:        result.Steps,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Values are rendered as decimal strings and payloads as
// hex so that large amounts survive RFC 8785 number handling.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		eventMap := map[string]any{
			"seq":    ev.Seq,
			"kind":   string(ev.Kind),
			"caller": string(ev.Caller),
			"index":  strconv.FormatUint(ev.Index, 10),
		}
		if ev.CarriesContent() {
			eventMap["target"] = ev.Target
			eventMap["value"] = strconv.FormatUint(ev.Value, 10)
			eventMap["payload"] = ir.EncodePayload(ev.Payload)
			eventMap["digest"] = ev.Digest
		}
		traceList[i] = eventMap
	}

	stepList := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		stepMap := map[string]any{
			"op":    st.Op,
			"as":    st.As,
			"index": strconv.FormatUint(st.Index, 10),
		}
		if st.Error != "" {
			stepMap["error"] = st.Error
		}
		stepList[i] = stepMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"steps":         stepList,
	}
	if s.FlowToken != "" {
		result["flow_token"] = s.FlowToken
	}
	return result
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass, or an error if the
// scenario could not be run. Test failure (via goldie) occurs if the trace
// doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := NewTraceSnapshot(scenario, result)
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Steps:        result.Steps,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
