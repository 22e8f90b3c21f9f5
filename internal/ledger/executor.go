package ledger

import (
	"context"
	"errors"

	"github.com/roach88/quorum/internal/ir"
)

// Executor performs the effect of an executed proposal.
//
// The ledger does not inspect the output; it only distinguishes success
// (nil error) from failure. Invoke may re-enter the ledger, including
// calling Execute on the same index, which fails with ALREADY_EXECUTED.
type Executor interface {
	Invoke(ctx context.Context, action ir.Action) ([]byte, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, action ir.Action) ([]byte, error)

// Invoke calls f.
func (f ExecutorFunc) Invoke(ctx context.Context, action ir.Action) ([]byte, error) {
	return f(ctx, action)
}

// ErrNoExecutor is the failure reported when a ledger without an executor
// executes a proposal.
var ErrNoExecutor = errors.New("no action executor configured")

type missingExecutor struct{}

func (missingExecutor) Invoke(context.Context, ir.Action) ([]byte, error) {
	return nil, ErrNoExecutor
}
