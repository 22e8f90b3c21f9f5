package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// Execute performs the proposal at index through the Action Executor.
//
// Requires an owner caller, an existing unexecuted proposal and at least
// Threshold active confirmations; the caller need not have confirmed.
//
// The executed flag is set before the executor runs and is never cleared.
// If the executor fails, Execute returns EXECUTION_FAILED wrapping the
// executor's error and the proposal stays consumed. On success the
// executor's output is returned and an executed event is emitted.
func (l *Ledger) Execute(ctx context.Context, caller ir.Owner, index uint64) ([]byte, error) {
	p, err := l.acquire(caller, index)
	if err != nil {
		return nil, err
	}

	if have, need := len(p.confirmedBy), l.reg.Threshold(); have < need {
		p.mu.Unlock()
		return nil, indexError(ErrCodeQuorumNotMet,
			fmt.Sprintf("%d of %d confirmations", have, need), caller, index)
	}

	// CRITICAL: flip before the external call. Re-entrant Execute on this
	// index observes executed == true and fails.
	p.executed = true
	action := p.action()
	p.mu.Unlock()

	out, err := l.exec.Invoke(ctx, action)
	if err != nil {
		l.logger.Warn("action executor failed; proposal consumed",
			"index", index, "caller", string(caller), "target", action.Target, "error", err)
		if fo, ok := l.sink.(FailureObserver); ok {
			fo.ExecutionFailed(caller, index, err)
		}
		return nil, &Error{
			Code:     ErrCodeExecutionFailed,
			Message:  "action executor rejected the action",
			Caller:   caller,
			Index:    index,
			HasIndex: true,
			Err:      err,
		}
	}

	// No other event can be stamped for this index once executed is set,
	// so stamping outside the proposal lock keeps per-proposal order.
	l.publish(l.stamp(ir.Event{Kind: ir.EventExecuted, Caller: caller, Index: index}))
	l.logger.Debug("proposal executed", "index", index, "caller", string(caller), "target", action.Target)
	return out, nil
}
