package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/ir"
)

// ProposeOptions holds flags for submit and amend.
type ProposeOptions struct {
	DataOptions
	Target  string
	Value   uint64
	Payload string // hex, optional 0x prefix
}

func addContentFlags(cmd *cobra.Command, opts *ProposeOptions) {
	cmd.Flags().StringVar(&opts.Target, "to", "", "action target")
	cmd.Flags().Uint64Var(&opts.Value, "value", 0, "amount transferred by the action")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "action payload as hex")
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProposeOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new proposal",
		Long: `Submit a proposal for the owners to confirm.

A proposal needs a non-zero value or a non-empty payload. The new
proposal starts with no confirmations, not even the submitter's.

Example:
  quorum submit --db ./wallet.db --as alice --to vault --value 100
  quorum submit --as bob --to registry --payload 0xa9059cbb`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	addCallerFlag(cmd, &opts.DataOptions)
	addContentFlags(cmd, opts)

	return cmd
}

func runSubmit(opts *ProposeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	caller, err := opts.caller()
	if err != nil {
		return f.Fail(err)
	}
	payload, err := ir.DecodePayload(opts.Payload)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid --payload", err))
	}

	s, err := openSession(ctx, &opts.DataOptions, cmd, nil)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	idx, err := s.ledger.Submit(caller, opts.Target, opts.Value, payload)
	if err != nil {
		return f.Fail(err)
	}
	s.touch(idx)

	return commitAndShow(opts.RootOptions, cmd, s, idx, "Submitted")
}

// NewAmendCommand creates the amend command.
func NewAmendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProposeOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "amend <index>",
		Short: "Replace a pending proposal's content",
		Long: `Replace the target, value and payload of a pending proposal.

Every active confirmation is cleared: owners must confirm the new
content. Any owner may amend, not only the submitter.

Example:
  quorum amend 0 --as alice --to vault --value 250`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmend(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	addCallerFlag(cmd, &opts.DataOptions)
	addContentFlags(cmd, opts)

	return cmd
}

func runAmend(opts *ProposeOptions, arg string, cmd *cobra.Command) error {
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
	payload, err := ir.DecodePayload(opts.Payload)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid --payload", err))
	}

	s, err := openSession(ctx, &opts.DataOptions, cmd, nil)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	if err := s.ledger.Amend(caller, idx, opts.Target, opts.Value, payload); err != nil {
		return f.Fail(err)
	}
	s.touch(idx)

	return commitAndShow(opts.RootOptions, cmd, s, idx, "Amended")
}

// commitAndShow persists the session and reports proposal idx.
func commitAndShow(opts *RootOptions, cmd *cobra.Command, s *session, idx uint64, verb string) error {
	f := opts.formatter(cmd)

	flow, err := s.commit(cmd.Context())
	if err != nil {
		return f.Fail(err)
	}
	p, err := s.ledger.Proposal(idx)
	if err != nil {
		return f.Fail(err)
	}
	view := newProposalView(p, s.ledger.Threshold())

	if f.Format == "json" {
		return f.SuccessWithFlow(view, flow)
	}
	f.VerboseLog("flow: %s", flow)
	return f.Success(fmt.Sprintf("%s proposal #%d\n%s", verb, idx, view))
}
