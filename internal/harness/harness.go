package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/quorum/internal/executor"
	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/ledger"
	"github.com/roach88/quorum/internal/registry"
	"github.com/roach88/quorum/internal/store"
	"github.com/roach88/quorum/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and flow token, persisting
// every step through the store exactly as the CLI does.
type Harness struct {
	store    *store.Store
	ledger   *ledger.Ledger
	events   *ledger.Recorder
	exec     *testutil.RecordingExecutor
	staged   *executor.Staged
	clock    *testutil.DeterministicClock
	flowGen  *testutil.FixedFlowGenerator
	logger   *slog.Logger
	recorded int // events already committed
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and store the wallet
// 2. Build the registry and ledger
// 3. Execute steps, committing each one's events and snapshot
// 4. Evaluate assertions
// 5. Return result with pass/fail, trace, and errors
//
// A non-nil error means the scenario could not be run at all (for example
// an invalid wallet); step and assertion mismatches are reported in the
// Result instead.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	owners := make([]ir.Owner, len(scenario.Wallet.Owners))
	for i, o := range scenario.Wallet.Owners {
		owners[i] = ir.Owner(o)
	}
	reg, err := registry.New(owners, scenario.Wallet.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to build wallet: %w", err)
	}
	if _, err := st.InitWallet(ctx, reg.Owners(), reg.Threshold()); err != nil {
		return nil, fmt.Errorf("failed to store wallet: %w", err)
	}

	h := &Harness{
		store:   st,
		events:  ledger.NewRecorder(),
		staged:  executor.NewStaged(),
		clock:   testutil.NewDeterministicClock(),
		flowGen: testutil.NewFixedFlowGenerator(scenario.FlowToken),
		logger:  ledger.DiscardLogger(), // Suppress logs in tests
	}
	h.exec = &testutil.RecordingExecutor{}
	if scenario.Executor == ExecutorFail {
		h.exec.Fail = true
	} else {
		// A succeeding executor stages the action so it lands in the outbox
		// with the executed snapshot.
		h.exec.Hook = func(ctx context.Context, action ir.Action) error {
			_, err := h.staged.EnqueueAction(ctx, action)
			return err
		}
	}
	h.ledger = ledger.New(reg, h.exec,
		ledger.WithSink(h.events),
		ledger.WithClock(h.clock),
		ledger.WithLogger(h.logger),
	)

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	result.Trace = h.events.Events()
	result.Calls = h.exec.Calls()
	result.Proposals = h.ledger.Proposals()

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSteps runs every step, validating its expect clause and
// committing its effects before the next step begins.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		base := h.clock.Current()

		index, err := h.apply(ctx, step)
		if err != nil && ledger.CodeOf(err) == "" {
			return fmt.Errorf("step %d: %w", i, err)
		}

		outcome := StepOutcome{Op: step.Op, As: step.As, Index: index}
		if err != nil {
			outcome.Error = string(ledger.CodeOf(err))
			outcome.Message = err.Error()
		}
		result.Steps = append(result.Steps, outcome)

		if msg := checkExpect(i, step, outcome); msg != "" {
			result.AddError(msg)
		}

		consumed := step.Op == OpExecute && (err == nil || ledger.IsExecutionFailed(err))
		if err := h.commit(ctx, base, index, consumed); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"as", step.As,
			"index", index,
			"error", outcome.Error,
		)
	}
	return nil
}

// apply performs one step and returns the index it addressed.
// Errors that are not ledger errors abort the scenario.
func (h *Harness) apply(ctx context.Context, step Step) (uint64, error) {
	caller := ir.Owner(step.As)

	switch step.Op {
	case OpSubmit:
		payload, err := ir.DecodePayload(step.Payload)
		if err != nil {
			return 0, err
		}
		return h.ledger.Submit(caller, step.Target, step.Value, payload)
	case OpAmend:
		payload, err := ir.DecodePayload(step.Payload)
		if err != nil {
			return step.Index, err
		}
		return step.Index, h.ledger.Amend(caller, step.Index, step.Target, step.Value, payload)
	case OpConfirm:
		return step.Index, h.ledger.Confirm(caller, step.Index)
	case OpRevoke:
		return step.Index, h.ledger.Revoke(caller, step.Index)
	case OpExecute:
		_, err := h.ledger.Execute(ctx, caller, step.Index)
		if err != nil && ledger.IsExecutionFailed(err) && !errors.Is(err, testutil.ErrRejected) {
			// Only the configured rejection is a scenario outcome; anything
			// else (a staging failure) is a harness fault.
			return step.Index, errors.Unwrap(err)
		}
		return step.Index, err
	default:
		return 0, fmt.Errorf("unknown op %q", step.Op)
	}
}

// commit persists the events emitted since the last commit together with
// the snapshot of the addressed proposal and any staged actions. consumed
// marks a step that executed the proposal, accepted or not.
func (h *Harness) commit(ctx context.Context, base int64, index uint64, consumed bool) error {
	all := h.events.Events()
	batch := store.Batch{
		Flow:    h.flowGen.Generate(),
		BaseSeq: base,
		Events:  all[h.recorded:],
		Actions: h.staged.Drain(),
	}
	if p, err := h.ledger.Proposal(index); err == nil {
		batch.States = []ir.ProposalState{p}
	}
	if consumed {
		batch.Consumed = []uint64{index}
	}

	if err := h.store.Commit(ctx, batch); err != nil {
		return err
	}
	h.recorded = len(all)
	return nil
}

// checkExpect compares an outcome with the step's expect clause and
// returns a failure message, or "" if they match.
func checkExpect(i int, step Step, got StepOutcome) string {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}

	if got.Error != want {
		if want == "" {
			return fmt.Sprintf("steps[%d] %s as %q: expected success, got %s", i, step.Op, step.As, got.Message)
		}
		actual := "success"
		if got.Error != "" {
			actual = got.Error
		}
		return fmt.Sprintf("steps[%d] %s as %q: expected %s, got %s", i, step.Op, step.As, want, actual)
	}

	if step.Expect != nil && step.Expect.Index != nil && got.Index != *step.Expect.Index {
		return fmt.Sprintf("steps[%d] submit: expected index %d, got %d", i, *step.Expect.Index, got.Index)
	}
	return ""
}
