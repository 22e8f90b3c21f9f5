package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/quorum/internal/ir"
)

// ErrRejected is the failure returned by a RecordingExecutor set to fail.
var ErrRejected = errors.New("action rejected by test executor")

// RecordingExecutor is an Action Executor that remembers every call.
//
// It satisfies ledger.Executor. By default it succeeds and returns Output.
// Set Fail to make every call fail with ErrRejected, or Hook to run code
// (for example a re-entrant ledger call) before the result is decided.
type RecordingExecutor struct {
	mu    sync.Mutex
	calls []ir.Action

	// Output is returned on success.
	Output []byte

	// Fail makes every call return ErrRejected.
	Fail bool

	// Hook, if set, runs on every call; a non-nil return is the call's error.
	Hook func(ctx context.Context, action ir.Action) error
}

// Invoke records action and reports the configured outcome.
func (e *RecordingExecutor) Invoke(ctx context.Context, action ir.Action) ([]byte, error) {
	e.mu.Lock()
	e.calls = append(e.calls, action)
	hook, fail, out := e.Hook, e.Fail, e.Output
	e.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, action); err != nil {
			return nil, err
		}
	}
	if fail {
		return nil, ErrRejected
	}
	return out, nil
}

// Calls returns a copy of every recorded action in call order.
func (e *RecordingExecutor) Calls() []ir.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ir.Action(nil), e.calls...)
}

// CallCount returns the number of recorded calls.
func (e *RecordingExecutor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}
