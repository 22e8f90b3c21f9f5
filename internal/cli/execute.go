package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/executor"
	"github.com/roach88/quorum/internal/ledger"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	DataOptions
	Executor string
}

// executeResult is the output of a successful execute.
type executeResult struct {
	Proposal proposalView      `json:"proposal"`
	Receipt  *executor.Receipt `json:"receipt,omitempty"`
	Output   string            `json:"output,omitempty"` // raw executor output when not a receipt
}

func (r executeResult) String() string {
	s := fmt.Sprintf("Executed proposal #%d\n%s", r.Proposal.Index, r.Proposal)
	if r.Receipt != nil {
		s += fmt.Sprintf("\nReceipt: %s (digest %s)", r.Receipt.Status, r.Receipt.Digest)
	}
	return s
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "execute <index>",
		Short: "Execute a proposal that has met quorum",
		Long: `Execute a proposal whose active confirmations meet the threshold.

Any owner may execute. The proposal is consumed before the action runs:
if the executor rejects the action, the proposal stays executed and
cannot be retried.

Executors:
  outbox - queue the action for delivery (see quorum outbox)
  log    - log the action and succeed (dry run)

Exit codes:
  0 - Executed
  1 - Rejected by the ledger or the executor
  2 - Command error

Example:
  quorum execute 0 --db ./wallet.db --as carol
  quorum execute 0 --as carol --executor log`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	addCallerFlag(cmd, &opts.DataOptions)
	cmd.Flags().StringVar(&opts.Executor, "executor", "", "action executor: outbox|log (default $QUORUM_EXECUTOR or outbox)")

	return cmd
}

func (o *ExecuteOptions) executorName() (string, error) {
	if o.Executor != "" {
		return o.Executor, nil
	}
	e, err := o.environment()
	if err != nil {
		return "", err
	}
	return e.Executor, nil
}

func (o *ExecuteOptions) executorFactory() (ExecutorFactory, error) {
	if o.Executors != nil {
		return o.Executors, nil
	}
	name, err := o.executorName()
	if err != nil {
		return nil, err
	}
	return executorNamed(name)
}

func runExecute(opts *ExecuteOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	idx, err := parseIndex(arg)
	if err != nil {
		return f.Fail(err)
	}
	caller, err := opts.caller()
	if err != nil {
		return f.Fail(err)
	}
	newExec, err := opts.executorFactory()
	if err != nil {
		return f.Fail(err)
	}

	s, err := openSession(ctx, &opts.DataOptions, cmd, newExec)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	out, execErr := s.ledger.Execute(ctx, caller, idx)
	if execErr != nil && !ledger.IsExecutionFailed(execErr) {
		return f.Fail(execErr)
	}

	// A rejected action still consumes the proposal, so the executed
	// snapshot is persisted either way, even after the command is canceled.
	s.consume(idx)
	flow, err := s.commit(context.WithoutCancel(ctx))
	if err != nil {
		return f.Fail(err)
	}
	if execErr != nil {
		f.VerboseLog("flow: %s", flow)
		return f.Fail(execErr)
	}

	p, err := s.ledger.Proposal(idx)
	if err != nil {
		return f.Fail(err)
	}
	result := executeResult{Proposal: newProposalView(p, s.ledger.Threshold())}
	if r, err := executor.ParseReceipt(out); err == nil {
		result.Receipt = &r
	} else if len(out) > 0 {
		result.Output = string(out)
	}

	if f.Format == "json" {
		return f.SuccessWithFlow(result, flow)
	}
	f.VerboseLog("flow: %s", flow)
	return f.Success(result)
}
