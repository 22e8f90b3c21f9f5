package harness

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Trace    []ir.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s #%d by %s\n", ev.Seq, ev.Kind, ev.Index, ev.Caller)
		}
	}

	return buf.String()
}

// assertProposal checks the final snapshot of one proposal.
// Only the fields set on the assertion are compared.
func assertProposal(result *Result, a Assertion) error {
	p, ok := result.proposal(*a.Index)
	if !ok {
		return &AssertionError{
			Type:     AssertProposal,
			Expected: fmt.Sprintf("proposal %d to exist", *a.Index),
			Actual:   fmt.Sprintf("%d proposals", len(result.Proposals)),
			Trace:    result.Trace,
		}
	}

	mismatch := func(field string, want, got any) error {
		return &AssertionError{
			Type:     AssertProposal,
			Expected: fmt.Sprintf("proposal %d %s = %v", p.Index, field, want),
			Actual:   fmt.Sprintf("%s = %v", field, got),
			Trace:    result.Trace,
		}
	}

	if a.Executed != nil && *a.Executed != p.Executed {
		return mismatch("executed", *a.Executed, p.Executed)
	}
	if a.Confirmations != nil && *a.Confirmations != p.ConfirmationCount {
		return mismatch("confirmations", *a.Confirmations, p.ConfirmationCount)
	}
	if a.ConfirmedBy != nil {
		got := make([]string, len(p.ConfirmedBy))
		for i, o := range p.ConfirmedBy {
			got[i] = string(o)
		}
		if !reflect.DeepEqual(a.ConfirmedBy, got) {
			return mismatch("confirmed_by", a.ConfirmedBy, got)
		}
	}
	if a.Target != nil && *a.Target != p.Target {
		return mismatch("target", *a.Target, p.Target)
	}
	if a.Value != nil && *a.Value != p.Value {
		return mismatch("value", *a.Value, p.Value)
	}
	if a.Payload != nil {
		want, err := ir.DecodePayload(*a.Payload)
		if err != nil {
			return fmt.Errorf("proposal assertion: %w", err)
		}
		if !bytes.Equal(want, p.Payload) {
			return mismatch("payload", ir.EncodePayload(want), ir.EncodePayload(p.Payload))
		}
	}

	return nil
}

// filterTrace returns the events of the trace, restricted to index if set.
func filterTrace(trace []ir.Event, index *uint64) []ir.Event {
	if index == nil {
		return trace
	}
	var out []ir.Event
	for _, ev := range trace {
		if ev.Index == *index {
			out = append(out, ev)
		}
	}
	return out
}

// assertEventCount checks if events of a kind appear exactly Count times.
func assertEventCount(trace []ir.Event, a Assertion) error {
	count := 0
	for _, ev := range filterTrace(trace, a.Index) {
		if string(ev.Kind) == a.Kind {
			count++
		}
	}

	if count != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", *a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks that the listed kinds appear in order.
// Kinds don't need to be consecutive (intervening events are allowed), and
// a kind may be listed more than once to match successive occurrences.
func assertEventOrder(trace []ir.Event, a Assertion) error {
	events := filterTrace(trace, a.Index)

	pos := 0
	for _, want := range a.Kinds {
		found := false
		for pos < len(events) {
			ev := events[pos]
			pos++
			if string(ev.Kind) == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Kinds),
				Actual:   fmt.Sprintf("no %s event after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertExecutorCalls checks the number of Action Executor invocations.
func assertExecutorCalls(result *Result, a Assertion) error {
	if len(result.Calls) != *a.Count {
		return &AssertionError{
			Type:     AssertExecutorCalls,
			Expected: fmt.Sprintf("%d executor calls", *a.Count),
			Actual:   fmt.Sprintf("%d executor calls", len(result.Calls)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertInvariant checks that every proposal's count equals the size of
// its confirmer set and that no executed proposal gained events after its
// executed event.
func assertInvariant(result *Result) error {
	for _, p := range result.Proposals {
		if p.ConfirmationCount != len(p.ConfirmedBy) {
			return &AssertionError{
				Type:     AssertInvariant,
				Expected: fmt.Sprintf("proposal %d confirmation_count == |confirmed_by|", p.Index),
				Actual:   fmt.Sprintf("count %d, confirmed_by %v", p.ConfirmationCount, p.ConfirmedBy),
			}
		}
	}

	executed := make(map[uint64]bool)
	for _, ev := range result.Trace {
		if executed[ev.Index] {
			return &AssertionError{
				Type:     AssertInvariant,
				Expected: fmt.Sprintf("no events for proposal %d after execution", ev.Index),
				Actual:   fmt.Sprintf("%s event at seq %d", ev.Kind, ev.Seq),
				Trace:    result.Trace,
			}
		}
		if ev.Kind == ir.EventExecuted {
			executed[ev.Index] = true
		}
	}
	return nil
}

// assertFinalState checks if a store table contains expected values.
// Queries the table with parameterized SQL and validates expected values
// using subset semantics.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Identifiers can't be parameterized
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		whereDesc := formatWhereClause(assertion.Where)
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Multiple matching rows would make the assertion ambiguous
	if rows.Next() {
		whereDesc := formatWhereClause(assertion.Where)
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	// Deterministic failure message when several fields differ
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Security: Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bool:
		// Booleans are stored as 0/1
		if val {
			return int64(1)
		}
		return int64(0)
	case string, int, int64:
		return val
	case uint64:
		return strconv.FormatUint(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from store tables.
// Handles type coercion for SQLite values which may be returned as different
// types: TEXT columns scan as string or []byte, booleans as 0/1 integers,
// and amounts are decimal TEXT that a scenario may write as a YAML integer.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if b, ok := actual.([]byte); ok {
		if s, ok := expected.(string); ok && strings.HasPrefix(s, "0x") {
			// BLOB columns compare against hex
			return s == ir.EncodePayload(b)
		}
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		if actualStr, ok := actual.(string); ok {
			return exp == actualStr
		}
		return false
	case int:
		switch act := actual.(type) {
		case int64:
			return int64(exp) == act
		case int:
			return exp == act
		case string:
			return strconv.Itoa(exp) == act
		}
		return false
	case int64:
		switch act := actual.(type) {
		case int64:
			return exp == act
		case string:
			return strconv.FormatInt(exp, 10) == act
		}
		return false
	case uint64:
		if actualStr, ok := actual.(string); ok {
			return strconv.FormatUint(exp, 10) == actualStr
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertProposal:
			err = assertProposal(result, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertExecutorCalls:
			err = assertExecutorCalls(result, assertion)
		case AssertInvariant:
			err = assertInvariant(result)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
