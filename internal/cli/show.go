package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/store"
)

// openWallet opens the store at the resolved --db and loads the wallet
// definition. Used by the read-only commands, which never build a ledger.
func openWallet(ctx context.Context, opts *DataOptions) (*store.Store, store.Wallet, error) {
	path, err := opts.database()
	if err != nil {
		return nil, store.Wallet{}, err
	}
	st, err := openStore(path)
	if err != nil {
		return nil, store.Wallet{}, err
	}
	w, err := st.LoadWallet(ctx)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNoWallet) {
			return nil, store.Wallet{}, WrapExitError(ExitCommandError, "wallet not initialized (run quorum init)", err)
		}
		return nil, store.Wallet{}, WrapExitError(ExitCommandError, "failed to load wallet", err)
	}
	return st, w, nil
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <index>",
		Short: "Show one proposal",
		Long: `Show a proposal's content, confirmations and status.

Example:
  quorum show 0 --db ./wallet.db
  quorum show 0 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	addDatabaseFlag(cmd, opts)

	return cmd
}

func runShow(opts *DataOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	idx, err := parseIndex(arg)
	if err != nil {
		return f.Fail(err)
	}
	st, w, err := openWallet(ctx, opts)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	p, err := st.ReadProposal(ctx, idx)
	if errors.Is(err, store.ErrProposalNotFound) {
		return f.Fail(WrapExitError(ExitFailure, fmt.Sprintf("proposal %d not found", idx), err))
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read proposal", err))
	}
	return f.Success(newProposalView(p, w.Threshold))
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	DataOptions
	Pending bool
}

type listResult struct {
	Proposals []proposalView `json:"proposals"`
	Total     int            `json:"total"`
}

func (r listResult) String() string {
	if len(r.Proposals) == 0 {
		return "No proposals."
	}
	lines := make([]string, len(r.Proposals))
	for i, p := range r.Proposals {
		lines[i] = p.summary()
	}
	return strings.Join(lines, "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List proposals in index order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "only proposals not yet executed")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, w, err := openWallet(ctx, &opts.DataOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	states, err := st.LoadProposals(ctx)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to load proposals", err))
	}

	result := listResult{Proposals: []proposalView{}}
	for _, p := range states {
		if opts.Pending && p.Executed {
			continue
		}
		result.Proposals = append(result.Proposals, newProposalView(p, w.Threshold))
	}
	result.Total = len(result.Proposals)
	return f.Success(result)
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	DataOptions
	Index int64 // -1 for all proposals
	Kind  string
	Flow  string
}

type historyResult struct {
	Events []eventView `json:"events"`
	Total  int         `json:"total"`
}

// String groups events by the flow that appended them.
func (r historyResult) String() string {
	if len(r.Events) == 0 {
		return "No events."
	}
	var b strings.Builder
	flow := ""
	for i, ev := range r.Events {
		if i == 0 || ev.Flow != flow {
			if i > 0 {
				b.WriteString("\n")
			}
			flow = ev.Flow
			fmt.Fprintf(&b, "flow %s\n", flow)
		}
		fmt.Fprintf(&b, "  %s\n", ev)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit log",
		Long: `Show the events appended to the wallet's audit log, in order.

Each event records one accepted operation. Events written by the same
command invocation share a flow token.

Example:
  quorum history --db ./wallet.db
  quorum history --index 0 --kind confirmed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	cmd.Flags().Int64Var(&opts.Index, "index", -1, "only events for this proposal")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only events of this kind")
	cmd.Flags().StringVar(&opts.Flow, "flow", "", "only events from this flow")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	filter := store.EventFilter{Flow: opts.Flow}
	if opts.Index >= 0 {
		idx := uint64(opts.Index)
		filter.Index = &idx
	}
	if opts.Kind != "" {
		kind, err := ir.ParseEventKind(opts.Kind)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "invalid --kind", err))
		}
		filter.Kind = kind
	}

	st, _, err := openWallet(ctx, &opts.DataOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	records, err := st.ReadEvents(ctx, filter)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read events", err))
	}

	result := historyResult{Events: make([]eventView, len(records))}
	for i, rec := range records {
		result.Events[i] = newEventView(rec)
	}
	result.Total = len(records)
	return f.Success(result)
}
