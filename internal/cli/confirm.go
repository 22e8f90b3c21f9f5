package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/ir"
)

// NewConfirmCommand creates the confirm command.
func NewConfirmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "confirm <index>",
		Short: "Confirm a pending proposal",
		Long: `Record the caller's confirmation of a pending proposal.

Example:
  quorum confirm 0 --db ./wallet.db --as bob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(opts, args[0], cmd, "Confirmed", func(s *session, caller ir.Owner, idx uint64) error {
				return s.ledger.Confirm(caller, idx)
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	addCallerFlag(cmd, opts)

	return cmd
}

// NewRevokeCommand creates the revoke command.
func NewRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "revoke <index>",
		Short: "Withdraw a confirmation",
		Long: `Withdraw the caller's confirmation of a pending proposal.

Example:
  quorum revoke 0 --db ./wallet.db --as bob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVote(opts, args[0], cmd, "Revoked confirmation on", func(s *session, caller ir.Owner, idx uint64) error {
				return s.ledger.Revoke(caller, idx)
			})
		},
	}

	addDatabaseFlag(cmd, opts)
	addCallerFlag(cmd, opts)

	return cmd
}

// runVote runs a confirmation change against proposal arg.
func runVote(opts *DataOptions, arg string, cmd *cobra.Command, verb string, op func(*session, ir.Owner, uint64) error) error {
	f := opts.formatter(cmd)

	idx, err := parseIndex(arg)
	if err != nil {
		return f.Fail(err)
	}
	caller, err := opts.caller()
	if err != nil {
		return f.Fail(err)
	}

	s, err := openSession(cmd.Context(), opts, cmd, nil)
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()

	if err := op(s, caller, idx); err != nil {
		return f.Fail(err)
	}
	s.touch(idx)

	return commitAndShow(opts.RootOptions, cmd, s, idx, verb)
}
