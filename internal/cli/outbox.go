package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/store"
)

// OutboxOptions holds flags for the outbox command.
type OutboxOptions struct {
	DataOptions
	All bool
	Ack int64 // -1 when unset
}

type outboxEntryView struct {
	Index   uint64 `json:"index"`
	Target  string `json:"target"`
	Value   string `json:"value"`
	Payload string `json:"payload"`
	Digest  string `json:"digest"`
	Status  string `json:"status"`
}

type outboxResult struct {
	Entries []outboxEntryView `json:"entries"`
	Total   int               `json:"total"`
}

func (r outboxResult) String() string {
	if len(r.Entries) == 0 {
		return "Outbox empty."
	}
	lines := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		lines[i] = fmt.Sprintf("#%-4d %-10s %s value=%s payload=%s", e.Index, e.Status, e.Target, e.Value, e.Payload)
	}
	return strings.Join(lines, "\n")
}

// NewOutboxCommand creates the outbox command.
func NewOutboxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OutboxOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect or acknowledge queued actions",
		Long: `List the actions queued by executed proposals.

A delivery process reads pending entries and acknowledges each one with
--ack once the action has been performed.

Example:
  quorum outbox --db ./wallet.db
  quorum outbox --all --format json
  quorum outbox --ack 0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutbox(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	cmd.Flags().BoolVar(&opts.All, "all", false, "include dispatched entries")
	cmd.Flags().Int64Var(&opts.Ack, "ack", -1, "mark the entry for this proposal index dispatched")

	return cmd
}

func runOutbox(opts *OutboxOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, _, err := openWallet(ctx, &opts.DataOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	if opts.Ack >= 0 {
		idx := uint64(opts.Ack)
		err := st.MarkDispatched(ctx, idx)
		if errors.Is(err, store.ErrNotPending) {
			return f.Fail(WrapExitError(ExitFailure, fmt.Sprintf("proposal %d has no pending action", idx), err))
		}
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to update outbox", err))
		}
		opts.loggerFor(cmd.ErrOrStderr()).Info("action dispatched", "index", idx)
	}

	entries, err := st.ReadOutbox(ctx, !opts.All)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read outbox", err))
	}

	result := outboxResult{Entries: make([]outboxEntryView, len(entries))}
	for i, e := range entries {
		result.Entries[i] = outboxEntryView{
			Index:   e.Action.Index,
			Target:  e.Action.Target,
			Value:   strconv.FormatUint(e.Action.Value, 10),
			Payload: ir.EncodePayload(e.Action.Payload),
			Digest:  e.Digest,
			Status:  e.Status,
		}
	}
	result.Total = len(entries)
	return f.Success(result)
}
